package pairs

import (
	"errors"
	"fmt"
	"strings"
)

// TranslationPair is a single original→translation association parsed from user text.
type TranslationPair struct {
	Original    string
	Translation string
}

// Row is one translatable unit of a localization document.
type Row struct {
	// Original is the source string as extracted from the document. Never modified here.
	Original string
	// Translation is the only field the matchers write.
	Translation string
}

// RowSet is an ordered sequence of rows in document order.
type RowSet []Row

// Mode selects which matchers an import runs.
type Mode string

const (
	// ModeBasic runs the exact matcher only.
	ModeBasic Mode = "basic"
	// ModeLevenshtein runs the exact matcher followed by the fuzzy matcher.
	ModeLevenshtein Mode = "levenshtein"
)

// ErrUnknownMode is returned by ParseMode for unrecognised mode names.
var ErrUnknownMode = errors.New("unknown import mode")

// ParseMode converts a user-supplied mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBasic, "":
		return ModeBasic, nil
	case ModeLevenshtein, "fuzzy":
		return ModeLevenshtein, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// PairMap maps originals to translations and remembers insertion order.
// Setting an existing key replaces its value but keeps its position.
type PairMap struct {
	keys   []string
	values map[string]string
}

// NewPairMap creates an empty PairMap.
func NewPairMap() *PairMap {
	return &PairMap{values: make(map[string]string)}
}

// Len returns the number of distinct originals.
func (m *PairMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get looks up the translation for original.
func (m *PairMap) Get(original string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[original]
	return v, ok
}

// Set stores translation under original.
func (m *PairMap) Set(original, translation string) {
	if _, exists := m.values[original]; !exists {
		m.keys = append(m.keys, original)
	}
	m.values[original] = translation
}

// Keys returns the originals in insertion order.
func (m *PairMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Pairs returns the contents as a slice in insertion order.
func (m *PairMap) Pairs() []TranslationPair {
	if m == nil {
		return nil
	}
	out := make([]TranslationPair, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, TranslationPair{Original: k, Translation: m.values[k]})
	}
	return out
}

// Range calls fn for every pair in insertion order until fn returns false.
func (m *PairMap) Range(fn func(original, translation string) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Merge adds the pairs of other whose originals are not present yet.
// Existing entries win; new keys are appended in other's order.
func (m *PairMap) Merge(other *PairMap) int {
	added := 0
	other.Range(func(original, translation string) bool {
		if _, exists := m.values[original]; !exists {
			m.Set(original, translation)
			added++
		}
		return true
	})
	return added
}
