package heading

import (
	"github.com/fyrsmithlabs/sectionrank/internal/config"
	"github.com/fyrsmithlabs/sectionrank/internal/layout"
)

// Level is the hierarchy level of a heading.
type Level string

const (
	H1 Level = "H1"
	H2 Level = "H2"
	H3 Level = "H3"
)

// Block is a layout line after normalization.
type Block struct {
	layout.RawLine

	// CharLength is the rune count of the normalized text.
	CharLength int
}

// DocumentStyle describes the dominant body text of one document.
type DocumentStyle struct {
	BodyFontSize float64
	BodyColor    int

	// Known is false when the document had no usable lines. Every heading
	// decision fails closed in that case.
	Known bool
}

// Candidate is an accepted heading. Candidates are values and are never
// modified after Extract returns them.
type Candidate struct {
	DocumentID    string  `json:"document"`
	Text          string  `json:"text"`
	Page          int     `json:"page"`
	FontSize      float64 `json:"font_size"`
	EffectiveBold bool    `json:"is_bold"`
	X             int     `json:"x"`
	Y             int     `json:"y"`
	CharLength    int     `json:"char_length"`
	BodyFontSize  float64 `json:"body_font_size"`
	Level         Level   `json:"heading_level"`
}

// Config holds the heading gate thresholds.
type Config struct {
	// Lines with MinLength or fewer runes, or MaxLength or more, are rejected.
	MinLength int
	MaxLength int

	WhitespaceRatio float64
	MathDensity     float64
	AlnumRatio      float64

	// FontTolerance is the fraction of the body size within which a line
	// counts as body-sized.
	FontTolerance float64

	// MarginRatio is the height fraction at the top and bottom of a page
	// treated as running header or footer.
	MarginRatio float64

	H1Ratio float64
	H2Ratio float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinLength:       3,
		MaxLength:       100,
		WhitespaceRatio: 0.30,
		MathDensity:     0.15,
		AlnumRatio:      0.5,
		FontTolerance:   0.10,
		MarginRatio:     0.05,
		H1Ratio:         1.5,
		H2Ratio:         1.2,
	}
}

// ConfigFrom converts the application heading settings.
func ConfigFrom(c config.HeadingConfig) Config {
	return Config{
		MinLength:       c.MinLength,
		MaxLength:       c.MaxLength,
		WhitespaceRatio: c.WhitespaceRatio,
		MathDensity:     c.MathDensity,
		AlnumRatio:      c.AlnumRatio,
		FontTolerance:   c.FontTolerance,
		MarginRatio:     c.MarginRatio,
		H1Ratio:         c.H1Ratio,
		H2Ratio:         c.H2Ratio,
	}
}
