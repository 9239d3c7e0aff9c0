package heading

import "github.com/fyrsmithlabs/sectionrank/internal/layout"

// Confirmer has the final say on blocks the heuristic accepted.
type Confirmer interface {
	IsHeading(features []float64) bool
}

// Result is the heading extraction outcome for one document.
type Result struct {
	Style DocumentStyle

	// Blocks is the number of blocks left after margin filtering.
	Blocks int

	// Verdicts counts heuristic verdicts by reason.
	Verdicts map[Reason]int

	// Vetoed counts heuristic-accepted blocks the confirmer rejected.
	Vetoed int

	Candidates []Candidate
}

// Extractor runs the heading stages over a document's lines.
type Extractor struct {
	cfg       Config
	heuristic *Heuristic
}

// NewExtractor creates an extractor with the given thresholds.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg, heuristic: NewHeuristic(cfg)}
}

// Extract returns the headings among lines in reading order. A nil
// confirmer accepts everything the heuristic accepts.
func (e *Extractor) Extract(docID string, lines []layout.RawLine, confirm Confirmer) Result {
	blocks := FilterMargins(Normalize(lines), e.cfg.MarginRatio)
	style := EstimateStyle(blocks)

	res := Result{
		Style:    style,
		Blocks:   len(blocks),
		Verdicts: make(map[Reason]int, len(Reasons)),
	}
	for _, b := range blocks {
		v := e.heuristic.Evaluate(b, style)
		res.Verdicts[v.Reason]++
		if !v.Accepted {
			continue
		}
		if confirm != nil && !confirm.IsHeading(Features(b, style)) {
			res.Vetoed++
			continue
		}
		res.Candidates = append(res.Candidates, e.candidate(docID, b, style))
	}
	return res
}

func (e *Extractor) candidate(docID string, b Block, style DocumentStyle) Candidate {
	return Candidate{
		DocumentID:    docID,
		Text:          b.Text,
		Page:          b.Page,
		FontSize:      b.FontSize,
		EffectiveBold: EffectiveBold(b, style),
		X:             b.X,
		Y:             b.Y,
		CharLength:    b.CharLength,
		BodyFontSize:  style.BodyFontSize,
		Level:         AssignLevel(b.FontSize, style, e.cfg),
	}
}
