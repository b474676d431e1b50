package markov

import (
	"bufio"
	"io"
	"regexp"
)

// maxTokenSize bounds a single whitespace-delimited token. Longer runs of
// non-space bytes make the stream fail instead of growing the buffer forever.
const maxTokenSize = 1 << 20

// WhitespaceTokenizer splits text on runs of Unicode white space and performs
// no other normalization: case and punctuation are kept as written. It is the
// tokenizer used for corpora by default.
type WhitespaceTokenizer struct{}

// NewStream Returns the stream processor.
func (WhitespaceTokenizer) NewStream(r io.Reader) StreamTokenizer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
	scanner.Split(bufio.ScanWords)
	return &whitespaceStream{scanner: scanner}
}

type whitespaceStream struct {
	scanner *bufio.Scanner
}

func (s *whitespaceStream) Next() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// RegexTokenizer splits each line of input into the matches of a regular
// expression. Its behavior can be customized with functional options.
type RegexTokenizer struct {
	splitRegex *regexp.Regexp
}

// Option Is a function that configures a RegexTokenizer.
type Option func(*RegexTokenizer)

// WithSplitRegex sets the regex string to use when splitting input text.
// Default: `[\w']+|[.,!?;]`
func WithSplitRegex(splitRegex string) Option {
	return func(t *RegexTokenizer) {
		t.splitRegex = regexp.MustCompile(splitRegex)
	}
}

// NewRegexTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more Option functions.
func NewRegexTokenizer(opts ...Option) *RegexTokenizer {
	t := &RegexTokenizer{
		// This regex finds sequences of word characters (letters, numbers, underscore)
		// OR single instances of common punctuation.
		splitRegex: regexp.MustCompile(`[\w']+|[.,!?;]`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// NewStream Returns the stream processor.
func (t *RegexTokenizer) NewStream(r io.Reader) StreamTokenizer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
	return &regexStream{
		scanner:    scanner,
		buffer:     []string{},
		splitRegex: t.splitRegex,
	}
}

// regexStream reads the input line by line and hands out the regex matches
// of each line in order.
type regexStream struct {
	scanner    *bufio.Scanner
	buffer     []string
	splitRegex *regexp.Regexp
}

// Next returns the next token from the stream. When the stream is exhausted,
// it returns io.EOF. Any other error indicates a problem reading from the
// underlying stream.
func (s *regexStream) Next() (string, error) {
	for len(s.buffer) == 0 { // Loop until we have tokens
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		s.buffer = s.splitRegex.FindAllString(s.scanner.Text(), -1)
	}

	word := s.buffer[0]
	s.buffer = s.buffer[1:] // Consume the token
	return word, nil
}
