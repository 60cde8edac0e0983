package pairs

import (
	"regexp"
	"strings"
)

// Delimiter separates an original from its translation.
const Delimiter = "|"

// space is any Unicode whitespace. RE2's \s only covers ASCII, and pasted text often
// carries no-break spaces.
const space = `\s\v\x{85}\p{Z}\x{1c}-\x{1f}`

// inlinePairPattern finds "english | russian" runs anywhere in a block of text.
// Group 1 is Latin letters, digits and basic punctuation; group 2 is Cyrillic with the
// same punctuation.
var inlinePairPattern = regexp.MustCompile(
	`([a-zA-Z0-9` + space + `.,!?'()]+)[` + space + `]*\|[` + space + `]*([\x{0400}-\x{04FF}` + space + `.,!?'()]+)`,
)

// SplitInline extracts every English|Russian pair found in text, in order of appearance.
func SplitInline(text string) []TranslationPair {
	matches := inlinePairPattern.FindAllStringSubmatch(text, -1)
	out := make([]TranslationPair, 0, len(matches))
	for _, m := range matches {
		out = append(out, TranslationPair{
			Original:    strings.TrimSpace(m[1]),
			Translation: strings.TrimSpace(m[2]),
		})
	}
	return out
}

// Rewrite reformats inline pairs as one "original|translation" line each.
// Returns "" when text holds no inline pairs.
func Rewrite(text string) string {
	found := SplitInline(text)
	lines := make([]string, 0, len(found))
	for _, p := range found {
		lines = append(lines, p.Original+Delimiter+p.Translation)
	}
	return strings.Join(lines, "\n")
}

// Parse turns free-form pair text into a PairMap.
//
// Text pasted as one block is first normalised by Rewrite. Each line is split on its
// first delimiter only, so translations may contain the delimiter themselves. Lines
// without a delimiter or with an empty original are dropped; a repeated original keeps
// the value from its last line.
func Parse(text string) *PairMap {
	text = strings.TrimSpace(text)
	if rewritten := Rewrite(text); rewritten != "" {
		text = rewritten
	}

	pm := NewPairMap()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		original, translation, ok := strings.Cut(line, Delimiter)
		if !ok {
			continue
		}
		original = strings.TrimSpace(original)
		if original == "" {
			continue
		}
		pm.Set(original, strings.TrimSpace(translation))
	}
	return pm
}

// Template renders the editable pair text for rows that still lack a translation:
// one "original|" line per untranslated row.
func Template(rows RowSet) string {
	var lines []string
	for _, r := range rows {
		if isBlank(r.Translation) {
			lines = append(lines, r.Original+Delimiter)
		}
	}
	return strings.Join(lines, "\n")
}

// Cleanup removes every "amp;" left over from double-escaped ampersand entities.
func Cleanup(s string) string {
	return strings.ReplaceAll(s, "amp;", "")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
