package confluxer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

// ErrInvalidModel is returned when an imported model is malformed.
var ErrInvalidModel = errors.New("invalid model")

// ExportedModel is the serializable representation of a model, used for
// JSON-based import and export.
type ExportedModel struct {
	Name        string              `json:"name"`
	Words       []string            `json:"words"`
	Starts      []string            `json:"starts"`
	Transitions map[string][]string `json:"transitions"`
}

// ExportModel writes m as indented JSON to w under the given name.
func ExportModel(w io.Writer, name string, m *Model) error {
	exported := ExportedModel{
		Name:        name,
		Words:       m.Words,
		Starts:      m.Starts,
		Transitions: m.Transitions,
	}
	if exported.Words == nil {
		exported.Words = []string{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportModel reads a model written by ExportModel and returns its name and
// the model. Fragments are lower-cased on the way in; any fragment that is
// not exactly two characters long fails the import with ErrInvalidModel.
func ImportModel(r io.Reader) (string, *Model, error) {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return "", nil, fmt.Errorf("failed to decode json model: %w", err)
	}

	m := &Model{
		Words:       imported.Words,
		Starts:      make([]string, 0, len(imported.Starts)),
		Transitions: make(map[string][]string, len(imported.Transitions)),
	}
	if m.Words == nil {
		m.Words = []string{}
	}

	seen := make(map[string]struct{}, len(imported.Starts))
	for _, start := range imported.Starts {
		if err := checkFragment(start); err != nil {
			return "", nil, fmt.Errorf("start fragment: %w", err)
		}
		start = strings.ToLower(start)
		if _, ok := seen[start]; ok {
			continue
		}
		seen[start] = struct{}{}
		m.Starts = append(m.Starts, start)
	}

	for fragment, next := range imported.Transitions {
		if err := checkFragment(fragment); err != nil {
			return "", nil, fmt.Errorf("transition key: %w", err)
		}
		key := strings.ToLower(fragment)
		for _, f := range next {
			if err := checkFragment(f); err != nil {
				return "", nil, fmt.Errorf("successor of %q: %w", fragment, err)
			}
			m.Transitions[key] = append(m.Transitions[key], strings.ToLower(f))
		}
	}

	return imported.Name, m, nil
}

func checkFragment(fragment string) error {
	if n := utf8.RuneCountInString(fragment); n != FragmentLength {
		return fmt.Errorf("%w: fragment %q has %d characters", ErrInvalidModel, fragment, n)
	}
	return nil
}

// sortedKeys returns the keys of a transition map in sorted order.
func sortedKeys(transitions map[string][]string) []string {
	return slices.Sorted(maps.Keys(transitions))
}
