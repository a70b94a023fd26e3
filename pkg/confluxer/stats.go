package confluxer

// ModelStats holds aggregated statistics for a single model.
type ModelStats struct {
	Words       int // The number of words in the corpus.
	Starts      int // The number of distinct fragments that can start a word.
	Fragments   int // The number of fragments with at least one successor.
	Transitions int // The total number of recorded links, duplicates included.
	DeadEnds    int // The number of distinct fragments that have no successor.
}

// Stats returns a snapshot of statistics for m.
func Stats(m *Model) ModelStats {
	stats := ModelStats{
		Words:     len(m.Words),
		Starts:    len(m.Starts),
		Fragments: len(m.Transitions),
	}

	deadEnds := make(map[string]struct{})
	for _, next := range m.Transitions {
		stats.Transitions += len(next)
		for _, f := range next {
			if len(m.Transitions[f]) == 0 {
				deadEnds[f] = struct{}{}
			}
		}
	}
	stats.DeadEnds = len(deadEnds)
	return stats
}

// Prune returns a copy of m without the links that were observed minFreq
// times or fewer. This is useful for dropping rare, and often noisy,
// transitions from large corpora. Fragments left with no successors are
// removed from the transition map; words and start fragments are kept.
// m itself is not modified.
func Prune(m *Model, minFreq int) *Model {
	pruned := &Model{
		Words:       m.Words,
		Starts:      m.Starts,
		Transitions: make(map[string][]string, len(m.Transitions)),
	}

	for fragment, next := range m.Transitions {
		freq := make(map[string]int, len(next))
		for _, f := range next {
			freq[f]++
		}
		var kept []string
		for _, f := range next {
			if freq[f] > minFreq {
				kept = append(kept, f)
			}
		}
		if len(kept) > 0 {
			pruned.Transitions[fragment] = kept
		}
	}
	return pruned
}
