package heading

import (
	"math"
	"regexp"
	"strings"
)

// Reason names the gate that decided a verdict.
type Reason string

const (
	ReasonAccepted   Reason = "accepted"
	ReasonLength     Reason = "length"
	ReasonWhitespace Reason = "whitespace"
	ReasonMath       Reason = "math"
	ReasonSymbols    Reason = "symbols"
	ReasonCaption    Reason = "caption"
	ReasonFont       Reason = "font"
)

// Reasons lists every reason in gate order.
var Reasons = []Reason{
	ReasonAccepted, ReasonLength, ReasonWhitespace, ReasonMath,
	ReasonSymbols, ReasonCaption, ReasonFont,
}

// Verdict is the outcome of the heuristic gates for one block.
type Verdict struct {
	Accepted bool
	Reason   Reason

	// Pattern is the caption pattern that matched, for ReasonCaption.
	Pattern string
}

// Pattern is a named line pattern that rules a block out as a heading.
type Pattern struct {
	Name  string
	Regex string
}

type compiledPattern struct {
	Pattern
	regex *regexp.Regexp
}

// CaptionPatterns returns the patterns for labels, captions and bare
// formulas. They are matched case-insensitively at the start of the text.
func CaptionPatterns() []Pattern {
	return []Pattern{
		{Name: "number", Regex: `^\d+\s*$`},
		{Name: "relation", Regex: `^[a-zA-Z]\s*[=<>≤≥]\s*`},
		{Name: "parenthesized", Regex: `^\([^)]+\)\s*$`},
		{Name: "table", Regex: `^Table\s+\d+`},
		{Name: "figure", Regex: `^Figure\s+\d+`},
		{Name: "equation", Regex: `^Equation\s+\d+`},
		{Name: "fig_abbrev", Regex: `^Fig\.\s*\d+`},
		{Name: "tab_abbrev", Regex: `^Tab\.\s*\d+`},
	}
}

var defaultCaptions = mustCompilePatterns(CaptionPatterns())

func mustCompilePatterns(patterns []Pattern) []*compiledPattern {
	compiled := make([]*compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, &compiledPattern{
			Pattern: p,
			regex:   regexp.MustCompile("(?i)" + p.Regex),
		})
	}
	return compiled
}

// Heuristic applies the heading gates in order and stops at the first
// rejection.
type Heuristic struct {
	cfg      Config
	captions []*compiledPattern
}

// NewHeuristic creates a heuristic with the given thresholds.
func NewHeuristic(cfg Config) *Heuristic {
	return &Heuristic{cfg: cfg, captions: defaultCaptions}
}

// Evaluate decides whether b looks like a heading of a document with the
// given style. It has no side effects.
func (h *Heuristic) Evaluate(b Block, style DocumentStyle) Verdict {
	text := strings.TrimSpace(b.Text)
	if n := len([]rune(text)); n <= h.cfg.MinLength || n >= h.cfg.MaxLength {
		return reject(ReasonLength)
	}
	if HasExcessiveWhitespace(text, h.cfg.WhitespaceRatio) {
		return reject(ReasonWhitespace)
	}
	if IsMathematical(text, h.cfg.MathDensity) {
		return reject(ReasonMath)
	}
	if frac, ok := alnumFraction(text); ok && frac < h.cfg.AlnumRatio {
		return reject(ReasonSymbols)
	}
	for _, p := range h.captions {
		if p.regex.MatchString(text) {
			return Verdict{Reason: ReasonCaption, Pattern: p.Name}
		}
	}
	if !h.emphasized(b, style) {
		return reject(ReasonFont)
	}
	return Verdict{Accepted: true, Reason: ReasonAccepted}
}

// emphasized reports whether b stands out from body text: a larger font, or
// a body-sized font that is bold or colored differently.
func (h *Heuristic) emphasized(b Block, style DocumentStyle) bool {
	if !style.Known {
		return false
	}
	body := style.BodyFontSize
	tol := body * h.cfg.FontTolerance
	if b.FontSize > body+tol {
		return true
	}
	if math.Abs(b.FontSize-body) <= tol {
		return b.Bold || b.Color != style.BodyColor
	}
	return false
}

func reject(r Reason) Verdict {
	return Verdict{Reason: r}
}
