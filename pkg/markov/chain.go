package markov

import (
	"slices"
)

// Prefix is an ordered pair of consecutive tokens used to index the tokens
// that may follow it. It is a comparable value, so two prefixes holding the
// same words are the same map key.
type Prefix struct {
	First  string
	Second string
}

// String joins the two tokens of the prefix with a single space.
func (p Prefix) String() string {
	return p.First + " " + p.Second
}

// shift returns the prefix formed by dropping the first token and appending next.
func (p Prefix) shift(next string) Prefix {
	return Prefix{First: p.Second, Second: next}
}

// Chain is the index from each Prefix seen in a corpus to the ordered list of
// tokens observed immediately after it. A Chain is never modified after Build
// returns it and is safe for concurrent use.
type Chain struct {
	keys   []Prefix // first-seen order, gives seeded sources a stable draw order
	next   map[Prefix][]string
	size   int
	tokens int
}

// Build indexes tokens into a new Chain. For every position i it records
// tokens[i+2] as a continuation of (tokens[i], tokens[i+1]). Continuations keep
// corpus order and repeated entries. Fewer than three tokens produce an empty,
// but valid, Chain.
func Build(tokens []string) *Chain {
	c := &Chain{
		next:   make(map[Prefix][]string),
		tokens: len(tokens),
	}

	for i := 0; i+2 < len(tokens); i++ {
		key := Prefix{First: tokens[i], Second: tokens[i+1]}
		conts, ok := c.next[key]
		if !ok {
			c.keys = append(c.keys, key)
		}
		c.next[key] = append(conts, tokens[i+2])
		c.size++
	}

	return c
}

// Len returns the number of distinct prefixes in the chain.
func (c *Chain) Len() int {
	return len(c.keys)
}

// Size returns the total number of continuation entries across all prefixes.
// For a chain built from n tokens this is max(0, n-2).
func (c *Chain) Size() int {
	return c.size
}

// Tokens returns the number of tokens the chain was built from.
func (c *Chain) Tokens() int {
	return c.tokens
}

// Empty reports whether the chain has no prefixes and so cannot be synthesized from.
func (c *Chain) Empty() bool {
	return c == nil || len(c.keys) == 0
}

// Keys returns a copy of every prefix in the order it was first seen.
func (c *Chain) Keys() []Prefix {
	return slices.Clone(c.keys)
}

// Contains reports whether p has at least one recorded continuation.
func (c *Chain) Contains(p Prefix) bool {
	_, ok := c.next[p]
	return ok
}

// Next returns a copy of the continuations recorded for p, in corpus order.
// It returns nil for a dead-end prefix.
func (c *Chain) Next(p Prefix) []string {
	return slices.Clone(c.next[p])
}
