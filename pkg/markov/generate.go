package markov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
)

// DefaultMaxLength is the output length, in tokens, used when WithMaxLength is not given.
const DefaultMaxLength = 100

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// RandomSource supplies the random draws for synthesis. *rand.Rand from
// math/rand/v2 satisfies it. A source is used by one walk at a time; give each
// concurrent caller its own.
type RandomSource interface {
	// IntN returns a uniformly distributed int in [0, n). n is always > 0.
	IntN(n int) int
}

// globalSource draws from the package-level math/rand/v2 generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// NewSource returns an independent PCG source seeded with seed. Equal seeds
// yield equal walks over the same chain.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// generateOptions Is used by the synthesis functions to configure default options.
type generateOptions struct {
	maxLength int
	truncate  bool
	logger    *slog.Logger
}

// GenerateOption is a function that configures synthesis parameters. It's used
// as a variadic argument to Synthesize, SynthesizeFrom and SynthesizeStream.
type GenerateOption func(*generateOptions)

// WithMaxLength sets the maximum number of tokens in the output, including the
// two tokens of the starting prefix. It must be at least 2.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

// WithTruncate controls what happens when a walk reaches the maximum length
// while the chain could still continue. With truncate set the text so far is
// returned; otherwise a *StepLimitError is returned.
func WithTruncate(truncate bool) GenerateOption {
	return func(o *generateOptions) { o.truncate = truncate }
}

// WithLogger sets the logger used to report why a walk stopped. By default
// all logs are discarded.
func WithLogger(logger *slog.Logger) GenerateOption {
	return func(o *generateOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newGenerateOptions(opts []GenerateOption) (*generateOptions, error) {
	options := &generateOptions{
		maxLength: DefaultMaxLength,
		truncate:  false,
		logger:    discardLogger,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.maxLength < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidMaxLength, options.maxLength)
	}
	return options, nil
}

// Synthesize walks the chain from a prefix chosen uniformly at random and
// returns the visited tokens joined by single spaces. At each step the next
// token is drawn uniformly from the current prefix's continuations, so a
// continuation seen twice is twice as likely. The walk stops at the first
// prefix with no continuations.
//
// It returns ErrEmptyModel for an empty chain and a *StepLimitError when the
// maximum length is reached, unless WithTruncate(true) was given. A nil rng
// uses the global math/rand/v2 source.
func (c *Chain) Synthesize(ctx context.Context, rng RandomSource, opts ...GenerateOption) (string, error) {
	if c.Empty() {
		return "", ErrEmptyModel
	}
	options, err := newGenerateOptions(opts)
	if err != nil {
		return "", err
	}
	if rng == nil {
		rng = globalSource{}
	}

	start := c.keys[rng.IntN(len(c.keys))]
	return c.walk(ctx, start, rng, options)
}

// SynthesizeFrom is like Synthesize but starts from the given prefix instead of
// a random one. It returns ErrUnknownPrefix if start has no continuations.
func (c *Chain) SynthesizeFrom(ctx context.Context, start Prefix, rng RandomSource, opts ...GenerateOption) (string, error) {
	if c.Empty() {
		return "", ErrEmptyModel
	}
	if !c.Contains(start) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, start.String())
	}
	options, err := newGenerateOptions(opts)
	if err != nil {
		return "", err
	}
	if rng == nil {
		rng = globalSource{}
	}

	return c.walk(ctx, start, rng, options)
}

// walk contains the main loop for synthesizing text from a start prefix.
func (c *Chain) walk(ctx context.Context, start Prefix, rng RandomSource, options *generateOptions) (string, error) {
	words := make([]string, 0, min(options.maxLength, 64))
	words = append(words, start.First, start.Second)

	w := walker{chain: c, rng: rng, key: start}
	for w.more() {
		if len(words) >= options.maxLength {
			text := strings.Join(words, " ")
			options.logger.DebugContext(ctx, "Generation stopped by max length",
				slog.String("start", start.String()),
				slog.Int("max_length", options.maxLength),
				slog.Bool("truncated", options.truncate),
			)
			if options.truncate {
				return text, nil
			}
			return "", &StepLimitError{Limit: options.maxLength, Partial: text}
		}
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("generation cancelled after %d tokens: %w", len(words), err)
		}
		words = append(words, w.step())
	}

	options.logger.DebugContext(ctx, "Generation terminated due to dead-end",
		slog.String("start", start.String()),
		slog.String("last_prefix", w.key.String()),
		slog.Int("generated_length", len(words)),
	)

	return strings.Join(words, " "), nil
}

// walker holds the state of one random walk. It never writes to the chain.
type walker struct {
	chain *Chain
	rng   RandomSource
	key   Prefix
}

// more reports whether the current prefix has any continuation.
func (w *walker) more() bool {
	return w.chain.Contains(w.key)
}

// step draws the next token and slides the prefix onto it. It must only be
// called after more has returned true.
func (w *walker) step() string {
	conts := w.chain.next[w.key]
	word := conts[w.rng.IntN(len(conts))]
	w.key = w.key.shift(word)
	return word
}
