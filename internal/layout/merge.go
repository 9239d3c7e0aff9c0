package layout

import (
	"math"
	"sort"
	"strings"
)

const (
	// baselineTolerance is how far apart, in points, two spans' baselines
	// may be and still share a line.
	baselineTolerance = 1.0

	// columnGapFactor splits a baseline group into separate lines when the
	// horizontal gap exceeds this multiple of the font size.
	columnGapFactor = 3.0
)

// MergeSpans joins span fragments left to right into one line of text.
// Fragments are trimmed and empty ones dropped; a single space separates
// fragments unless the next one starts with closing punctuation.
func MergeSpans(spans []Span) string {
	sorted := sortedByX(spans)

	var sb strings.Builder
	for _, sp := range sorted {
		chunk := strings.TrimSpace(sp.Text)
		if chunk == "" {
			continue
		}
		if sb.Len() > 0 && !startsWithClosing(chunk) {
			sb.WriteByte(' ')
		}
		sb.WriteString(chunk)
	}
	return strings.TrimSpace(sb.String())
}

// LineFromSpans builds a RawLine from the spans of one line. Typographic
// attributes and origin come from the leftmost span. ok is false when the
// merged text is empty.
func LineFromSpans(spans []Span, page int, pageHeight float64) (line RawLine, ok bool) {
	if len(spans) == 0 {
		return RawLine{}, false
	}
	sorted := sortedByX(spans)
	text := MergeSpans(sorted)
	if text == "" {
		return RawLine{}, false
	}
	first := sorted[0]
	return RawLine{
		Text:       text,
		Page:       page,
		FontSize:   first.FontSize,
		FontName:   first.FontName,
		Bold:       first.Bold,
		Color:      first.Color,
		X:          int(first.X),
		Y:          int(first.Y),
		Baseline:   first.Y,
		PageHeight: pageHeight,
	}, true
}

func startsWithClosing(s string) bool {
	switch s[0] {
	case ',', '.', ')', ']':
		return true
	}
	return false
}

func sortedByX(spans []Span) []Span {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return sorted
}

// groupLines clusters the spans of one page into lines. Spans whose
// baselines agree within baselineTolerance are grouped; a group is split
// where a horizontal gap suggests a second column. Groups keep the order in
// which their first span was drawn.
func groupLines(spans []Span) [][]Span {
	type bucket struct {
		y     float64
		spans []Span
	}
	var buckets []*bucket

	for _, sp := range spans {
		var target *bucket
		// Search recent buckets first; text is usually drawn top to bottom.
		for i := len(buckets) - 1; i >= 0; i-- {
			if math.Abs(buckets[i].y-sp.Y) <= baselineTolerance {
				target = buckets[i]
				break
			}
		}
		if target == nil {
			target = &bucket{y: sp.Y}
			buckets = append(buckets, target)
		}
		target.spans = append(target.spans, sp)
	}

	lines := make([][]Span, 0, len(buckets))
	for _, b := range buckets {
		lines = append(lines, splitColumns(b.spans)...)
	}
	return lines
}

// splitColumns breaks a baseline group at wide horizontal gaps. Spans
// without a known width never cause a split.
func splitColumns(spans []Span) [][]Span {
	sorted := sortedByX(spans)
	var out [][]Span
	start := 0
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.Width <= 0 {
			continue
		}
		gap := sorted[i].X - (prev.X + prev.Width)
		if gap > columnGapFactor*math.Max(prev.FontSize, 1) {
			out = append(out, sorted[start:i])
			start = i
		}
	}
	return append(out, sorted[start:])
}
