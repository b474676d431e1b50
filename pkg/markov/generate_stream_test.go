package markov

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSynthesizeStream(t *testing.T) {
	ctx := context.Background()
	c := setupCatChain(t)

	tokenChan, err := c.SynthesizeStream(ctx, newScriptedSource(t, 1, 0, 0, 0, 1))
	if err != nil {
		t.Fatalf("SynthesizeStream failed: %v", err)
	}

	var tokens []string
	for token := range tokenChan {
		tokens = append(tokens, token)
	}

	if got := strings.Join(tokens, " "); got != "cat sat on the cat ran" {
		t.Errorf("stream produced %q, want %q", got, "cat sat on the cat ran")
	}
}

func TestSynthesizeStreamMatchesSynthesize(t *testing.T) {
	ctx := context.Background()
	c := Build(strings.Fields("one fish two fish red fish blue fish one fish two fish old fish new fish"))

	for seed := uint64(0); seed < 20; seed++ {
		want, err := c.Synthesize(ctx, NewSource(seed), WithMaxLength(1000), WithTruncate(true))
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}

		tokenChan, err := c.SynthesizeStream(ctx, NewSource(seed), WithMaxLength(1000))
		if err != nil {
			t.Fatalf("SynthesizeStream failed: %v", err)
		}
		var tokens []string
		for token := range tokenChan {
			tokens = append(tokens, token)
		}

		if got := strings.Join(tokens, " "); got != want {
			t.Errorf("seed %d: stream %q differs from %q", seed, got, want)
		}
	}
}

func TestSynthesizeStreamMaxLength(t *testing.T) {
	c := Build([]string{"a", "b", "a", "b", "a", "b"})

	tokenChan, err := c.SynthesizeStream(context.Background(), NewSource(3), WithMaxLength(10))
	if err != nil {
		t.Fatalf("SynthesizeStream failed: %v", err)
	}

	count := 0
	for range tokenChan {
		count++
	}
	if count != 10 {
		t.Errorf("expected 10 tokens before the stream closed, got %d", count)
	}
}

func TestSynthesizeStreamCancellation(t *testing.T) {
	c := Build([]string{"a", "b", "a", "b", "a", "b"})
	ctx, cancel := context.WithCancel(context.Background())

	tokenChan, err := c.SynthesizeStream(ctx, NewSource(3), WithMaxLength(1_000_000))
	if err != nil {
		t.Fatalf("SynthesizeStream failed: %v", err)
	}

	<-tokenChan
	cancel()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-tokenChan:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream was not closed after cancellation")
		}
	}
}

func TestSynthesizeStreamInvalidOptions(t *testing.T) {
	c := setupCatChain(t)

	if _, err := c.SynthesizeStream(context.Background(), nil, WithMaxLength(1)); !errors.Is(err, ErrInvalidMaxLength) {
		t.Errorf("expected ErrInvalidMaxLength, got %v", err)
	}
}
