package heading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sectionrank/internal/layout"
)

func TestFilterMargins(t *testing.T) {
	mk := func(y int, h float64) Block {
		return Block{RawLine: layout.RawLine{Text: "x", Y: y, PageHeight: h}}
	}
	blocks := []Block{mk(30, 800), mk(40, 800), mk(400, 800), mk(760, 800), mk(761, 800), mk(5, 0)}

	kept := FilterMargins(blocks, 0.05)

	var ys []int
	for _, b := range kept {
		ys = append(ys, b.Y)
	}
	assert.Equal(t, []int{40, 400, 760, 5}, ys)
}

func TestFilterMargins_UsesUnroundedBaseline(t *testing.T) {
	mk := func(baseline float64) Block {
		return Block{RawLine: layout.RawLine{Text: "x", Y: int(baseline), Baseline: baseline, PageHeight: 800}}
	}

	kept := FilterMargins([]Block{mk(39.6), mk(40.2), mk(759.9), mk(760.7)}, 0.05)

	var baselines []float64
	for _, b := range kept {
		baselines = append(baselines, b.Baseline)
	}
	assert.Equal(t, []float64{40.2, 759.9}, baselines)
}

func TestEstimateStyle(t *testing.T) {
	mk := func(size float64, color int) Block {
		return Block{RawLine: layout.RawLine{Text: "x", FontSize: size, Color: color}}
	}

	t.Run("most frequent wins", func(t *testing.T) {
		style := EstimateStyle([]Block{mk(14, 0), mk(10, 0), mk(10, 0x333333), mk(10, 0)})
		assert.Equal(t, DocumentStyle{BodyFontSize: 10, BodyColor: 0, Known: true}, style)
	})

	t.Run("ties go to first seen", func(t *testing.T) {
		style := EstimateStyle([]Block{mk(12, 0x111111), mk(10, 0x222222), mk(10, 0x222222), mk(12, 0x111111)})
		assert.Equal(t, 12.0, style.BodyFontSize)
		assert.Equal(t, 0x111111, style.BodyColor)
	})

	t.Run("no blocks", func(t *testing.T) {
		assert.Equal(t, DocumentStyle{}, EstimateStyle(nil))
	})

	t.Run("repeatable", func(t *testing.T) {
		blocks := []Block{mk(9, 0), mk(11, 0), mk(11, 0)}
		assert.Equal(t, EstimateStyle(blocks), EstimateStyle(blocks))
	})
}

type confirmFunc func([]float64) bool

func (f confirmFunc) IsHeading(features []float64) bool { return f(features) }

func sampleLines() []layout.RawLine {
	line := func(text string, y int, size float64, bold bool) layout.RawLine {
		return layout.RawLine{Text: text, Page: 1, FontSize: size, Bold: bold, X: 72, Y: y, PageHeight: 800}
	}
	return []layout.RawLine{
		line("Running Header Text", 20, 10, false),
		line("Graph Theory Notes", 100, 20, true),
		line("This page introduces graphs and their vertices.", 140, 10, false),
		line("Edges connect pairs of vertices in the graph.", 160, 10, false),
		line("∀x∈S: f(x)=1", 180, 20, false),
		line("A third line of plain body text for style.", 200, 10, false),
		line("Table 1 Results", 220, 14, true),
		line("M ETHODS O VERVIEW", 300, 13, false),
	}
}

func TestExtractor_Extract(t *testing.T) {
	ex := NewExtractor(DefaultConfig())

	res := ex.Extract("notes.pdf", sampleLines(), nil)

	assert.Equal(t, DocumentStyle{BodyFontSize: 10, Known: true}, res.Style)
	assert.Equal(t, 7, res.Blocks)
	assert.Equal(t, 2, res.Verdicts[ReasonAccepted])
	assert.Equal(t, 3, res.Verdicts[ReasonFont])
	assert.Equal(t, 1, res.Verdicts[ReasonMath])
	assert.Equal(t, 1, res.Verdicts[ReasonCaption])
	assert.Zero(t, res.Vetoed)

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, Candidate{
		DocumentID:    "notes.pdf",
		Text:          "Graph Theory Notes",
		Page:          1,
		FontSize:      20,
		EffectiveBold: true,
		X:             72,
		Y:             100,
		CharLength:    18,
		BodyFontSize:  10,
		Level:         H1,
	}, res.Candidates[0])
	assert.Equal(t, "METHODS OVERVIEW", res.Candidates[1].Text)
	assert.Equal(t, H2, res.Candidates[1].Level)
	assert.False(t, res.Candidates[1].EffectiveBold)
}

func TestExtractor_ConfirmerVetoes(t *testing.T) {
	ex := NewExtractor(DefaultConfig())

	var seen [][]float64
	veto := confirmFunc(func(f []float64) bool {
		seen = append(seen, f)
		return f[6] >= 1.5
	})

	res := ex.Extract("notes.pdf", sampleLines(), veto)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Graph Theory Notes", res.Candidates[0].Text)
	assert.Equal(t, 1, res.Vetoed)
	assert.Len(t, seen, 2, "only heuristic-accepted blocks reach the confirmer")
}

func TestExtractor_AllLinesInMargins(t *testing.T) {
	ex := NewExtractor(DefaultConfig())
	lines := []layout.RawLine{
		{Text: "Confidential Draft", Page: 1, FontSize: 18, Bold: true, Y: 10, PageHeight: 800},
		{Text: "Page 1 of 1", Page: 1, FontSize: 9, Y: 790, PageHeight: 800},
	}

	res := ex.Extract("draft.pdf", lines, nil)

	assert.False(t, res.Style.Known)
	assert.Zero(t, res.Blocks)
	assert.Empty(t, res.Candidates)
}

func TestExtractor_DoesNotModifyInput(t *testing.T) {
	lines := sampleLines()
	NewExtractor(DefaultConfig()).Extract("notes.pdf", lines, nil)
	assert.Equal(t, sampleLines(), lines)
}
