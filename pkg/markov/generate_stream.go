package markov

import (
	"context"
	"log/slog"
)

// SynthesizeStream performs the same walk as Synthesize but returns a
// read-only channel that receives the tokens one at a time, starting with the
// two tokens of the randomly chosen prefix. This is useful for hosts that want
// to forward text as it is produced. The channel is closed at a dead end, at
// the maximum length, or once the context is cancelled; reaching the maximum
// length is not reported as an error in this form.
func (c *Chain) SynthesizeStream(ctx context.Context, rng RandomSource, opts ...GenerateOption) (<-chan string, error) {
	if c.Empty() {
		return nil, ErrEmptyModel
	}
	options, err := newGenerateOptions(opts)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = globalSource{}
	}
	start := c.keys[rng.IntN(len(c.keys))]

	tokenChan := make(chan string)

	go func() {
		defer close(tokenChan)

		send := func(token string) bool {
			select {
			case <-ctx.Done():
				options.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return false
			case tokenChan <- token:
				return true
			}
		}

		if !send(start.First) || !send(start.Second) {
			return
		}

		generated := 2
		w := walker{chain: c, rng: rng, key: start}
		for w.more() {
			if generated >= options.maxLength {
				options.logger.DebugContext(ctx, "Generation stream stopped by max length",
					slog.String("start", start.String()),
					slog.Int("max_length", options.maxLength),
				)
				return
			}
			if !send(w.step()) {
				return
			}
			generated++
		}
	}()

	return tokenChan, nil
}
