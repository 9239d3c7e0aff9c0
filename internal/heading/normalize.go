package heading

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fyrsmithlabs/sectionrank/internal/layout"
)

// NormalizeText merges a single uppercase letter into the uppercase token
// that follows it, so "I NTRODUCTION to Graphs" becomes
// "INTRODUCTION to Graphs". The scan is greedy with one token of look-ahead
// and never re-examines a merged token. Whitespace collapses to single
// spaces.
func NormalizeText(text string) string {
	tokens := strings.Fields(text)
	merged := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if i+1 < len(tokens) && utf8.RuneCountInString(tok) == 1 && isUpper(tok) && isUpper(tokens[i+1]) {
			merged = append(merged, tok+tokens[i+1])
			i++
			continue
		}
		merged = append(merged, tok)
	}
	return strings.Join(merged, " ")
}

// isUpper reports whether s has at least one uppercase letter and no
// lowercase or titlecase letters. Digits and punctuation are ignored, so
// "2A" is uppercase and "12" is not.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// Normalize turns layout lines into blocks. Lines whose text normalizes to
// nothing are dropped.
func Normalize(lines []layout.RawLine) []Block {
	blocks := make([]Block, 0, len(lines))
	for _, l := range lines {
		l.Text = NormalizeText(l.Text)
		if l.Text == "" {
			continue
		}
		blocks = append(blocks, Block{RawLine: l, CharLength: utf8.RuneCountInString(l.Text)})
	}
	return blocks
}
