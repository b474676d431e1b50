package markov

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyModel is returned when synthesizing from a chain with no
	// prefixes, which is what a corpus of fewer than three tokens produces.
	ErrEmptyModel = errors.New("markov: chain is empty")
	// ErrNonTerminating is matched by a StepLimitError, returned when a walk
	// reaches its maximum length without reaching a dead-end prefix.
	ErrNonTerminating = errors.New("markov: generation did not terminate")
	// ErrUnknownPrefix is returned when a walk is asked to start from a
	// prefix the chain has never seen.
	ErrUnknownPrefix = errors.New("markov: unknown start prefix")
	// ErrInvalidMaxLength is returned for a maximum length too short to hold
	// the starting prefix.
	ErrInvalidMaxLength = errors.New("markov: max length must be at least 2")
)

// StepLimitError reports a walk that was cut off by the maximum length.
// Partial holds the text generated up to the limit.
type StepLimitError struct {
	Limit   int
	Partial string
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("markov: generation reached the %d token limit without a dead end", e.Limit)
}

// Is lets errors.Is match a StepLimitError against ErrNonTerminating.
func (e *StepLimitError) Is(target error) bool {
	return target == ErrNonTerminating
}
