package markov

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// catTokens is the corpus "the cat sat on the cat ran".
var catTokens = []string{"the", "cat", "sat", "on", "the", "cat", "ran"}

// scriptedSource returns a fixed sequence of draws, clamped to the range
// asked for. Once the script is exhausted it keeps returning the last entry.
type scriptedSource struct {
	t     testing.TB
	draws []int
	pos   int
}

func newScriptedSource(t testing.TB, draws ...int) *scriptedSource {
	return &scriptedSource{t: t, draws: draws}
}

func (s *scriptedSource) IntN(n int) int {
	if n <= 0 {
		s.t.Fatalf("IntN called with n = %d", n)
	}
	if len(s.draws) == 0 {
		return 0
	}
	i := s.pos
	if i >= len(s.draws) {
		i = len(s.draws) - 1
	}
	s.pos++
	d := s.draws[i]
	if d >= n {
		s.t.Fatalf("scripted draw %d out of range [0, %d)", d, n)
	}
	return d
}

// setupCatChain builds the chain for catTokens.
func setupCatChain(t *testing.T) *Chain {
	t.Helper()
	c := Build(catTokens)
	if c.Len() != 4 {
		t.Fatalf("setup: expected 4 prefixes, got %d", c.Len())
	}
	return c
}

var (
	benchmarkCorpus []string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() []string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				sb.Reset()
				sb.WriteString("this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. ")
				break
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = strings.Fields(sb.String())
	})
	return benchmarkCorpus
}
