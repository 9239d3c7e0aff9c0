package heading

// FilterMargins drops blocks whose baseline lies in the top or bottom ratio
// of their page. Blocks with an unknown page height are kept.
func FilterMargins(blocks []Block, ratio float64) []Block {
	kept := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if inMargin(b, ratio) {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

func inMargin(b Block, ratio float64) bool {
	h := b.PageHeight
	if h <= 0 {
		return false
	}
	y := b.BaselineY()
	return y < h*ratio || y > h*(1-ratio)
}

// EstimateStyle returns the most frequent font size and color among blocks.
// Ties go to the value seen first. With no blocks the style is unknown.
func EstimateStyle(blocks []Block) DocumentStyle {
	if len(blocks) == 0 {
		return DocumentStyle{}
	}

	sizes := newTally[float64](len(blocks))
	colors := newTally[int](len(blocks))
	for _, b := range blocks {
		sizes.add(b.FontSize)
		colors.add(b.Color)
	}
	return DocumentStyle{
		BodyFontSize: sizes.mode(),
		BodyColor:    colors.mode(),
		Known:        true,
	}
}

// tally counts values and remembers first-seen order for tie breaking.
type tally[K comparable] struct {
	counts map[K]int
	order  []K
}

func newTally[K comparable](capacity int) *tally[K] {
	return &tally[K]{counts: make(map[K]int, capacity)}
}

func (t *tally[K]) add(k K) {
	if _, ok := t.counts[k]; !ok {
		t.order = append(t.order, k)
	}
	t.counts[k]++
}

func (t *tally[K]) mode() K {
	var best K
	bestCount := 0
	for _, k := range t.order {
		if c := t.counts[k]; c > bestCount {
			best, bestCount = k, c
		}
	}
	return best
}
