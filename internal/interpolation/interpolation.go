package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mapping stores the original token and the placeholder that stands in for it.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

type span struct {
	start, end int
}

// patterns detect tokens a machine translator must not touch in mod strings.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\{[0-9]+\}`),                           // {0}, {1}
	regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_.]*\}`),          // {playerName}
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`), // %d, %s, %.2f
	regexp.MustCompile(`%%`),                                   // escaped percent literal
	regexp.MustCompile(`&lt;/?[a-zA-Z][^&]*?&gt;`),             // escaped inline tags, &lt;br/&gt;
	regexp.MustCompile(`&[a-zA-Z]+;|&#[0-9]+;`),                // entities
	regexp.MustCompile(`\[/?[a-zA-Z][a-zA-Z0-9=#_-]*\]`),       // [b], [/color], [color=#ff0000]
	regexp.MustCompile(`\\[nrt]`),                              // literal escapes
}

// Protect replaces protected tokens with {{var_N}} placeholders, numbered from 1 in
// order of appearance. Overlapping matches keep the earliest, longest token.
func Protect(text string) (string, []Mapping) {
	var spans []span
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1]})
		}
	}
	if len(spans) == 0 {
		return text, nil
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end-spans[i].start > spans[j].end-spans[j].start
	})

	var (
		sb       strings.Builder
		mappings []Mapping
		last     int
	)
	for _, s := range spans {
		if s.start < last {
			continue
		}
		idx := len(mappings) + 1
		placeholder := fmt.Sprintf("{{var_%d}}", idx)
		sb.WriteString(text[last:s.start])
		sb.WriteString(placeholder)
		mappings = append(mappings, Mapping{
			Original:    text[s.start:s.end],
			Placeholder: placeholder,
			Index:       idx,
		})
		last = s.end
	}
	sb.WriteString(text[last:])

	return sb.String(), mappings
}

// Restore puts the original tokens back in place of their placeholders.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		result = strings.Replace(result, m.Placeholder, m.Original, 1)
	}
	return result
}

// Missing lists the placeholders a translation dropped.
func Missing(translated string, mappings []Mapping) []string {
	var missing []string
	for _, m := range mappings {
		if !strings.Contains(translated, m.Placeholder) {
			missing = append(missing, m.Placeholder)
		}
	}
	return missing
}
