/*
Package markov builds order-2 word chains from a token stream and synthesizes
new text by walking them at random.

A Chain maps every pair of consecutive tokens (a Prefix) to the tokens that
followed that pair in the corpus, duplicates included, so frequent
continuations are drawn proportionally more often. Chains are immutable once
built and may be shared between goroutines; each synthesis call only needs its
own RandomSource.

Synthesis stops at the first prefix with no recorded continuation. Because a
cyclic corpus may never reach one, every walk is bounded by a maximum output
length (see WithMaxLength and WithTruncate).
*/
package markov
