package corpus

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/CTAG07/markovbot/pkg/markov"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("setup: could not write %s: %v", name, err)
	}
	return path
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	// No trailing newline on the first file: "ham" and "Sam" must stay apart.
	first := writeFile(t, dir, "green-eggs.txt", "I do not like green eggs and ham")
	second := writeFile(t, dir, "sam.txt", "Sam I am\nThat Sam-I-am!\n")

	tokens, err := LoadFiles(context.Background(), nil, first, second)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	expected := []string{"I", "do", "not", "like", "green", "eggs", "and", "ham", "Sam", "I", "am", "That", "Sam-I-am!"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %q, got %q", expected, tokens)
	}
}

func TestLoadKeepsSourceOrder(t *testing.T) {
	var sources []Source
	var expected []string
	for i := 0; i < 40; i++ {
		word := string(rune('a'+i%26)) + string(rune('a'+i/26))
		sources = append(sources, Text(word, word))
		expected = append(expected, word)
	}

	tokens, err := Load(context.Background(), markov.WhitespaceTokenizer{}, sources...)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %q, got %q", expected, tokens)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	present := writeFile(t, dir, "present.txt", "some words here")
	missing := filepath.Join(dir, "missing.txt")

	tokens, err := LoadFiles(context.Background(), nil, present, missing)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the underlying os.ErrNotExist to be kept, got %v", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Source != missing {
		t.Errorf("expected LoadError for %q, got %v", missing, err)
	}
	if tokens != nil {
		t.Errorf("expected no tokens on failure, got %q", tokens)
	}
}

func TestLoadNoSources(t *testing.T) {
	if _, err := Load(context.Background(), nil); !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestLoadEmptySourceIsNotAnError(t *testing.T) {
	tokens, err := Load(context.Background(), nil, Text("empty", ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %q", tokens)
	}
	if !markov.Build(tokens).Empty() {
		t.Error("expected an empty chain from an empty corpus")
	}
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }
func (brokenSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(errReader{}), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("unreadable") }

func TestLoadReadError(t *testing.T) {
	_, err := Load(context.Background(), nil, Text("ok", "fine words"), brokenSource{})
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, nil, Text("a", "one two three"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
