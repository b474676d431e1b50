// Package corpus reads named text sources and turns them into one ordered
// token stream for chain building.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CTAG07/markovbot/pkg/markov"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrLoad is matched by every *LoadError.
	ErrLoad = errors.New("corpus: load failed")
	// ErrNoSources is returned when Load is called without any source.
	ErrNoSources = errors.New("corpus: no sources given")
)

// maxConcurrentReads bounds how many sources are read at once.
const maxConcurrentReads = 8

// LoadError reports a source that could not be opened or read.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("corpus: could not load %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is lets errors.Is match a LoadError against ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// Source is a named body of text.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource string

// File returns a Source reading the file at path.
func File(path string) Source { return fileSource(path) }

func (f fileSource) Name() string                 { return string(f) }
func (f fileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

type textSource struct {
	name string
	body string
}

// Text returns a Source serving body from memory.
func Text(name, body string) Source { return textSource{name: name, body: body} }

func (t textSource) Name() string { return t.name }
func (t textSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(t.body)), nil
}

// Load tokenizes every source with t and concatenates the tokens in the order
// the sources were given. Sources are read concurrently. Each source is
// tokenized on its own, so the last word of one source is never joined to the
// first word of the next. Any failing source fails the whole load with a
// *LoadError; a load never degrades to an empty token list.
func Load(ctx context.Context, t markov.Tokenizer, sources ...Source) ([]string, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if t == nil {
		t = markov.WhitespaceTokenizer{}
	}

	parts := make([][]string, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tokens, err := readSource(src, t)
			if err != nil {
				return &LoadError{Source: src.Name(), Err: err}
			}
			parts[i] = tokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	tokens := make([]string, 0, total)
	for _, p := range parts {
		tokens = append(tokens, p...)
	}
	return tokens, nil
}

// LoadFiles is a convenience wrapper around Load for paths on disk.
func LoadFiles(ctx context.Context, t markov.Tokenizer, paths ...string) ([]string, error) {
	sources := make([]Source, len(paths))
	for i, path := range paths {
		sources[i] = File(path)
	}
	return Load(ctx, t, sources...)
}

func readSource(src Source, t markov.Tokenizer) ([]string, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer func(rc io.ReadCloser) {
		_ = rc.Close()
	}(rc)

	return markov.Tokenize(rc, t)
}
