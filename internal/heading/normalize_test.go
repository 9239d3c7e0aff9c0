package heading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/sectionrank/internal/layout"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"split capital merged", "I NTRODUCTION to Graphs", "INTRODUCTION to Graphs"},
		{"lowercase follower untouched", "I am here", "I am here"},
		{"merged token not re-examined", "A B C", "AB C"},
		{"pairs merge independently", "X Y Z W", "XY ZW"},
		{"digits with capital count as uppercase", "A 2B", "A2B"},
		{"pure digits are not uppercase", "A 12", "A 12"},
		{"trailing single letter", "Part A", "Part A"},
		{"whitespace collapsed", "  multiple \t  spaces ", "multiple spaces"},
		{"non-ascii capitals", "É COLE", "ÉCOLE"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"I NTRODUCTION to Graphs",
		"A B C D E",
		"I A B",
		"Chapter 2 M ETHODS",
		"plain lowercase words",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), in)
	}
}

func TestIsUpper(t *testing.T) {
	assert.True(t, isUpper("ABC"))
	assert.True(t, isUpper("2A"))
	assert.True(t, isUpper("A-B"))
	assert.False(t, isUpper("12"))
	assert.False(t, isUpper("Abc"))
	assert.False(t, isUpper("ǅ"), "titlecase is not uppercase")
	assert.False(t, isUpper(""))
}

func TestNormalize(t *testing.T) {
	lines := []layout.RawLine{
		{Text: "I NTRODUCTION", Page: 1, FontSize: 18},
		{Text: "   ", Page: 1, FontSize: 10},
		{Text: "Über Graphen", Page: 2, FontSize: 10},
	}

	blocks := Normalize(lines)
	assert.Len(t, blocks, 2)
	assert.Equal(t, "INTRODUCTION", blocks[0].Text)
	assert.Equal(t, 12, blocks[0].CharLength)
	assert.Equal(t, 12, blocks[1].CharLength, "rune count, not bytes")

	assert.Equal(t, "I NTRODUCTION", lines[0].Text, "input untouched")
}
