// Package layout turns documents into per-line layout observations.
//
// A Source yields, for each line of text on a page, the merged text plus the
// typographic attributes of its first span: font size, font name, boldness,
// fill color and origin. Sources never interpret the lines; deciding what is a
// heading happens downstream.
package layout

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedFormat is returned for files no source can read.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed wraps failures of the underlying parser or tool.
	ErrExtractionFailed = errors.New("layout extraction failed")
)

// Span is a run of text drawn with a single font at a single origin.
type Span struct {
	Text     string
	X        float64
	Y        float64 // baseline, top-origin
	Width    float64 // approximate advance, 0 when unknown
	FontSize float64
	FontName string
	Bold     bool
	Color    int // packed 0xRRGGBB
}

// RawLine is one logical line of text on a page.
type RawLine struct {
	Text     string
	Page     int
	FontSize float64
	FontName string
	Bold     bool
	Color    int
	X        int
	Y        int

	// Baseline is the unrounded top-origin baseline Y was truncated from.
	// Zero means only Y is known.
	Baseline float64

	// PageHeight is the height of the page the line sits on. Zero means
	// the height is unknown and no margin band applies.
	PageHeight float64
}

// Document is the extraction result for one input file.
type Document struct {
	// ID is the file name the document was read from.
	ID    string
	Path  string
	Pages int
	Lines []RawLine

	// Skipped counts lines dropped for malformed data (empty text,
	// non-positive size, page below 1).
	Skipped int
}

// Source extracts the lines of a document.
type Source interface {
	Extract(ctx context.Context, path string) (*Document, error)
}

// BaselineY returns the most precise baseline the line carries.
func (l RawLine) BaselineY() float64 {
	if l.Baseline != 0 {
		return l.Baseline
	}
	return float64(l.Y)
}

// Valid reports whether the line carries usable data.
func (l RawLine) Valid() bool {
	return l.Text != "" && l.FontSize > 0 && l.Page >= 1
}

// appendValid appends line to doc when it is usable and counts it otherwise.
func (d *Document) appendValid(line RawLine) {
	if !line.Valid() {
		d.Skipped++
		return
	}
	d.Lines = append(d.Lines, line)
}
