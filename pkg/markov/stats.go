package markov

// Stats holds aggregated statistics for a single Chain.
type Stats struct {
	Tokens        int `json:"tokens"`        // The number of tokens the chain was built from.
	Keys          int `json:"keys"`          // The number of distinct prefixes.
	Continuations int `json:"continuations"` // The total number of continuation entries.
	Vocabulary    int `json:"vocabulary"`    // The number of distinct tokens appearing anywhere in the chain.
	Terminals     int `json:"terminals"`     // Continuation entries that lead to a dead-end prefix.
	MaxFanOut     int `json:"max_fan_out"`   // The longest continuation list of any prefix.
}

// Stats returns a snapshot of statistics for the chain.
func (c *Chain) Stats() Stats {
	if c == nil {
		return Stats{}
	}

	vocab := make(map[string]struct{})
	stats := Stats{
		Tokens:        c.tokens,
		Keys:          len(c.keys),
		Continuations: c.size,
	}

	for _, key := range c.keys {
		vocab[key.First] = struct{}{}
		vocab[key.Second] = struct{}{}
		conts := c.next[key]
		if len(conts) > stats.MaxFanOut {
			stats.MaxFanOut = len(conts)
		}
		for _, word := range conts {
			vocab[word] = struct{}{}
			if !c.Contains(key.shift(word)) {
				stats.Terminals++
			}
		}
	}
	stats.Vocabulary = len(vocab)

	return stats
}
