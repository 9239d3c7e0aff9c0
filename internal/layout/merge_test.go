package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSpans(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  string
	}{
		{
			name:  "sorted left to right",
			spans: []Span{{Text: "World", X: 60}, {Text: "Hello", X: 10}},
			want:  "Hello World",
		},
		{
			name: "closing punctuation attaches without space",
			spans: []Span{
				{Text: "Results", X: 0},
				{Text: ", and", X: 40},
				{Text: "(a)", X: 80},
				{Text: ".", X: 100},
				{Text: "]", X: 110},
			},
			want: "Results, and (a).]",
		},
		{
			name:  "fragments trimmed and empties dropped",
			spans: []Span{{Text: "  Intro ", X: 0}, {Text: "   ", X: 30}, {Text: "duction\t", X: 50}},
			want:  "Intro duction",
		},
		{
			name:  "opening punctuation keeps the space",
			spans: []Span{{Text: "see", X: 0}, {Text: "(Fig", X: 20}},
			want:  "see (Fig",
		},
		{
			name:  "empty",
			spans: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeSpans(tt.spans))
		})
	}
}

func TestLineFromSpans_UsesLeftmostSpan(t *testing.T) {
	spans := []Span{
		{Text: "Methods", X: 120.7, Y: 300.2, FontSize: 12, FontName: "Times-Roman"},
		{Text: "2.", X: 72.9, Y: 300.6, FontSize: 14, FontName: "Times-Bold", Bold: true, Color: 0x1F3864},
	}

	line, ok := LineFromSpans(spans, 3, 792)
	require.True(t, ok)

	assert.Equal(t, "2. Methods", line.Text)
	assert.Equal(t, 3, line.Page)
	assert.Equal(t, 14.0, line.FontSize)
	assert.Equal(t, "Times-Bold", line.FontName)
	assert.True(t, line.Bold)
	assert.Equal(t, 0x1F3864, line.Color)
	assert.Equal(t, 72, line.X)
	assert.Equal(t, 300, line.Y)
	assert.Equal(t, 300.6, line.Baseline)
	assert.Equal(t, 792.0, line.PageHeight)

	// input order is untouched
	assert.Equal(t, "Methods", spans[0].Text)
}

func TestLineFromSpans_EmptyText(t *testing.T) {
	_, ok := LineFromSpans([]Span{{Text: "   ", FontSize: 10}}, 1, 0)
	assert.False(t, ok)

	_, ok = LineFromSpans(nil, 1, 0)
	assert.False(t, ok)
}

func TestGroupLines(t *testing.T) {
	spans := []Span{
		{Text: "World", X: 100, Y: 50},
		{Text: "Next line", X: 50, Y: 70},
		{Text: "Hello", X: 50, Y: 50.4},
	}

	groups := groupLines(spans)
	require.Len(t, groups, 2)

	first, ok := LineFromSpans(groups[0], 1, 0)
	require.True(t, ok)
	assert.Equal(t, "Hello World", first.Text)

	second, ok := LineFromSpans(groups[1], 1, 0)
	require.True(t, ok)
	assert.Equal(t, "Next line", second.Text)
}

func TestGroupLines_SplitsColumns(t *testing.T) {
	spans := []Span{
		{Text: "Left column", X: 50, Y: 100, Width: 80, FontSize: 10},
		{Text: "Right column", X: 320, Y: 100, Width: 90, FontSize: 10},
		{Text: "tail", X: 132, Y: 100, Width: 20, FontSize: 10},
	}

	groups := groupLines(spans)
	require.Len(t, groups, 2)
	assert.Equal(t, "Left column tail", MergeSpans(groups[0]))
	assert.Equal(t, "Right column", MergeSpans(groups[1]))
}

func TestRawLine_Valid(t *testing.T) {
	assert.True(t, RawLine{Text: "a", FontSize: 1, Page: 1}.Valid())
	assert.False(t, RawLine{Text: "", FontSize: 1, Page: 1}.Valid())
	assert.False(t, RawLine{Text: "a", FontSize: 0, Page: 1}.Valid())
	assert.False(t, RawLine{Text: "a", FontSize: 1, Page: 0}.Valid())
}
