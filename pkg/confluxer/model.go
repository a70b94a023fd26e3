package confluxer

import (
	"strings"
)

// FragmentLength is the number of characters in a fragment.
const FragmentLength = 2

// Model is a bigram transition model built from a word list.
// A Model must not be modified once built; every function in this package
// treats it as read-only, so a single Model can serve any number of
// concurrent generations.
type Model struct {
	// Words is the sorted word list the model was built from.
	Words []string
	// Starts holds the distinct lower-cased first fragments of every word,
	// in the order they were first seen.
	Starts []string
	// Transitions maps a fragment to the fragments observed right after it.
	// Duplicates are kept so that common transitions are picked more often.
	Transitions map[string][]string
}

// Fragments splits word into its overlapping two-character fragments, left
// to right. A word of n characters yields n-1 fragments; words shorter than
// two characters yield none. Fragments keep the casing of word.
func Fragments(word string) []string {
	runes := []rune(word)
	if len(runes) < FragmentLength {
		return nil
	}
	fragments := make([]string, 0, len(runes)-1)
	for i := 0; i+FragmentLength <= len(runes); i++ {
		fragments = append(fragments, string(runes[i:i+FragmentLength]))
	}
	return fragments
}

// BuildModel derives the start set and transition map from words. The words
// slice is retained as Model.Words. Building is deterministic: the same input
// always yields the same model.
func BuildModel(words []string) *Model {
	m := &Model{
		Words:       words,
		Starts:      []string{},
		Transitions: make(map[string][]string),
	}
	seen := make(map[string]struct{})

	for _, word := range words {
		fragments := Fragments(word)
		if len(fragments) == 0 {
			continue
		}

		first := strings.ToLower(fragments[0])
		if _, ok := seen[first]; !ok {
			seen[first] = struct{}{}
			m.Starts = append(m.Starts, first)
		}

		for i := 0; i < len(fragments)-1; i++ {
			k := strings.ToLower(fragments[i])
			f := strings.ToLower(fragments[i+1])
			m.Transitions[k] = append(m.Transitions[k], f)
		}
	}
	return m
}

// Successors returns the fragments that may follow fragment. The lookup is
// case-insensitive. The returned slice belongs to the model and must not be
// modified.
func (m *Model) Successors(fragment string) []string {
	return m.Transitions[strings.ToLower(fragment)]
}

// Empty reports whether the model has no start fragments, meaning no word can
// be generated from it.
func (m *Model) Empty() bool {
	return m == nil || len(m.Starts) == 0
}
