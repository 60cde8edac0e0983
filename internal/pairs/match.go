package pairs

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxDistance is the largest edit distance the fuzzy matcher accepts.
const MaxDistance = 3

// ProgressFunc receives advisory progress updates during Apply.
type ProgressFunc func(done, total int)

// Result reports how many rows each matcher filled.
type Result struct {
	Exact int
	Fuzzy int
}

// Total is the number of rows filled by the import.
func (r Result) Total() int {
	return r.Exact + r.Fuzzy
}

// Option configures Apply.
type Option func(*options)

type options struct {
	progress ProgressFunc
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// Apply runs the exact matcher and, in ModeLevenshtein, the fuzzy matcher afterwards.
// rows is updated in place and also returned.
func Apply(rows RowSet, pm *PairMap, mode Mode, opts ...Option) (RowSet, Result) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	res.Exact = applyExact(rows, pm, o.progress)
	if mode == ModeLevenshtein {
		res.Fuzzy = applyFuzzy(rows, pm, o.progress)
	}
	return rows, res
}

// ApplyExact fills untranslated rows whose original is a key of pm, byte for byte.
// Returns the number of rows filled.
func ApplyExact(rows RowSet, pm *PairMap) int {
	return applyExact(rows, pm, nil)
}

// ApplyFuzzy fills untranslated rows whose trimmed original is within MaxDistance
// edits of a trimmed pair original. Pairs are tried in insertion order; once a row is filled
// it is no longer untranslated, so the first qualifying pair wins.
// Returns the number of rows filled.
func ApplyFuzzy(rows RowSet, pm *PairMap) int {
	return applyFuzzy(rows, pm, nil)
}

func applyExact(rows RowSet, pm *PairMap, progress ProgressFunc) int {
	filled := 0
	for i := range rows {
		if isBlank(rows[i].Translation) {
			if translation, ok := pm.Get(rows[i].Original); ok && fill(&rows[i], translation) {
				filled++
			}
		}
		if progress != nil {
			progress(i+1, len(rows))
		}
	}
	return filled
}

func applyFuzzy(rows RowSet, pm *PairMap, progress ProgressFunc) int {
	filled := 0
	done := 0
	total := pm.Len()
	pm.Range(func(original, translation string) bool {
		key := strings.TrimSpace(original)
		for i := range rows {
			if !isBlank(rows[i].Translation) {
				continue
			}
			if Distance(key, strings.TrimSpace(rows[i].Original)) <= MaxDistance && fill(&rows[i], translation) {
				filled++
			}
		}
		done++
		if progress != nil {
			progress(done, total)
		}
		return true
	})
	return filled
}

// Distance is the Levenshtein distance between a and b counted in code points,
// with unit-cost insertions, deletions and substitutions.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// fill writes the cleaned translation into r. An empty pair translation leaves the
// row untranslated and reports false.
func fill(r *Row, translation string) bool {
	cleaned := strings.TrimSpace(Cleanup(translation))
	if cleaned == "" {
		return false
	}
	r.Translation = cleaned
	return true
}
