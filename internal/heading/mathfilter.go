package heading

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// mathSymbols are operators, set and logic notation, Greek letters and
// brackets that mark formula text.
var mathSymbols = func() map[rune]struct{} {
	const set = "∈⊆×∀∃∑∏∫∂∇∞±≤≥≠≈≡∝∉⊂⊃∪∩∅⟨⟩∥⊥∧∨¬→←↔⇒⇔" +
		"αβγδεθλμπσφψωΔΓΘΛΠΣΦΨΩ" +
		"=+−-*/^()[]{}<>÷√"
	m := make(map[rune]struct{}, utf8.RuneCountInString(set))
	for _, r := range set {
		m[r] = struct{}{}
	}
	return m
}()

// mathPatterns each add two to the symbol count when they match anywhere.
var mathPatterns = compile(
	`[a-zA-Z]\s*[=<>≤≥]\s*[a-zA-Z\d]`, // assignment or relation
	`\{[^}]*\}`,                       // set notation
	`\|[^|]*\|`,                       // absolute value, cardinality
	`[a-zA-Z]\s*⊆\s*[a-zA-Z]`,
	`[a-zA-Z]\s*×\s*[a-zA-Z]`,
	`∀\s*[a-zA-Z]`,
	`∃\s*[a-zA-Z]`,
	`[a-zA-Z]\s*\(\s*[a-zA-Z]\s*\)`, // f(x)
	`\|\s*[a-zA-Z]\s*\|`,            // norm
	`[a-zA-Z]_\{[^}]+\}`,            // braced subscript
	`[a-zA-Z]\^[{\d]`,               // superscript
	`V\s*=\s*\{.*\}`,                // set definition
	`∥.*∥\s*[≤≥]\s*.*∥.*∥`,          // norm inequality
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// HasExcessiveWhitespace reports whether whitespace makes up more than
// threshold of the runes in text. Empty text counts as excessive.
func HasExcessiveWhitespace(text string, threshold float64) bool {
	if text == "" {
		return true
	}
	var total, space int
	for _, r := range text {
		total++
		if unicode.IsSpace(r) {
			space++
		}
	}
	return float64(space)/float64(total) > threshold
}

// IsMathematical reports whether text reads as a formula: math symbols plus
// twice the number of matching formula patterns, divided by the rune count
// with spaces removed, exceeds threshold.
func IsMathematical(text string, threshold float64) bool {
	total := utf8.RuneCountInString(strings.ReplaceAll(text, " ", ""))
	if total == 0 {
		return false
	}

	score := 0
	for _, r := range text {
		if _, ok := mathSymbols[r]; ok {
			score++
		}
	}
	for _, re := range mathPatterns {
		if re.MatchString(text) {
			score += 2
		}
	}
	return float64(score)/float64(total) > threshold
}

// alnumFraction returns the share of letters and digits among the runes of
// text with spaces removed, and false when nothing is left.
func alnumFraction(text string) (float64, bool) {
	total := utf8.RuneCountInString(strings.ReplaceAll(text, " ", ""))
	if total == 0 {
		return 0, false
	}
	alnum := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			alnum++
		}
	}
	return float64(alnum) / float64(total), true
}
