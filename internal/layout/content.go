package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const (
	// glyphWidthEm approximates the advance of one glyph when the font
	// carries no width metrics.
	glyphWidthEm = 0.5

	// wordGapThousandths is the TJ displacement, in thousandths of an em,
	// treated as a word space.
	wordGapThousandths = 200.0

	// renderFillStroke is the text render mode used to fake bold faces.
	renderFillStroke = 2

	// maxFormDepth bounds Form XObject nesting.
	maxFormDepth = 8
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

func identity() matrix { return matrix{1, 0, 0, 1, 0, 0} }

func translate(tx, ty float64) matrix { return matrix{1, 0, 0, 1, tx, ty} }

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// graphicsState holds the parts of the PDF graphics and text state that
// affect where text lands and how it looks.
type graphicsState struct {
	ctm       matrix
	fill      int
	font      *fontFace
	size      float64
	render    int
	leading   float64
	charSpace float64
	wordSpace float64
	hscale    float64
}

// resourceScope resolves font and XObject names against one resource
// dictionary. Pages and each Form XObject get their own scope.
type resourceScope struct {
	res   pdf.Value
	fonts map[string]*fontFace
}

func newScope(res pdf.Value) *resourceScope {
	return &resourceScope{res: res, fonts: map[string]*fontFace{}}
}

func (s *resourceScope) font(name string) *fontFace {
	if f, ok := s.fonts[name]; ok {
		return f
	}
	f := newFontFace(name, s.res.Key("Font").Key(name))
	s.fonts[name] = f
	return f
}

// textWalker interprets content streams and records a Span per
// text-showing operator.
type textWalker struct {
	pageHeight float64

	gs    graphicsState
	stack []graphicsState
	tm    matrix
	tlm   matrix
	depth int
	spans []Span
}

func newTextWalker(pageHeight float64) *textWalker {
	return &textWalker{
		pageHeight: pageHeight,
		gs:         graphicsState{ctm: identity(), hscale: 1},
		tm:         identity(),
		tlm:        identity(),
	}
}

// readPage walks the content of page pageNr and returns its spans in
// drawing order along with the page height. The parser panics on malformed
// objects and streams; spans drawn before the fault are kept and err
// reports it.
func readPage(r *pdf.Reader, pageNr int) (spans []Span, height float64, err error) {
	var w *textWalker
	defer func() {
		if p := recover(); p != nil {
			if w != nil {
				spans = w.spans
			}
			err = fmt.Errorf("content stream: %v", p)
		}
	}()

	page := r.Page(pageNr)
	if page.V.IsNull() {
		return nil, 0, nil
	}
	height = pageHeight(page)

	contents := page.V.Key("Contents")
	if contents.IsNull() {
		return nil, height, nil
	}
	w = newTextWalker(height)
	w.walk(contents, newScope(page.Resources()))
	return w.spans, height, nil
}

// walk interprets one content stream (or array of streams) under scope.
func (w *textWalker) walk(strm pdf.Value, scope *resourceScope) {
	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		w.exec(op, args, scope)
	})
}

func (w *textWalker) exec(op string, args []pdf.Value, scope *resourceScope) {
	switch op {
	case "q":
		w.stack = append(w.stack, w.gs)
	case "Q":
		if n := len(w.stack); n > 0 {
			w.gs = w.stack[n-1]
			w.stack = w.stack[:n-1]
		}
	case "cm":
		if m, ok := matrixArg(args); ok {
			w.gs.ctm = m.mul(w.gs.ctm)
		}
	case "BT":
		w.tm, w.tlm = identity(), identity()
	case "Tf":
		if len(args) >= 2 && args[len(args)-2].Kind() == pdf.Name {
			w.gs.font = scope.font(args[len(args)-2].Name())
			w.gs.size = args[len(args)-1].Float64()
		}
	case "Tc":
		w.setNum(args, &w.gs.charSpace)
	case "Tw":
		w.setNum(args, &w.gs.wordSpace)
	case "TL":
		w.setNum(args, &w.gs.leading)
	case "Tz":
		var scale float64
		if w.setNum(args, &scale) {
			w.gs.hscale = scale / 100
		}
	case "Tr":
		var mode float64
		if w.setNum(args, &mode) {
			w.gs.render = int(mode)
		}
	case "Td", "TD":
		n := numbers(args)
		if len(n) < 2 {
			return
		}
		tx, ty := n[len(n)-2], n[len(n)-1]
		if op == "TD" {
			w.gs.leading = -ty
		}
		w.moveLine(tx, ty)
	case "Tm":
		if m, ok := matrixArg(args); ok {
			w.tm, w.tlm = m, m
		}
	case "T*":
		w.moveLine(0, -w.gs.leading)
	case "Tj":
		if s, ok := lastString(args); ok {
			w.show([]pdf.Value{s})
		}
	case "'":
		w.moveLine(0, -w.gs.leading)
		if s, ok := lastString(args); ok {
			w.show([]pdf.Value{s})
		}
	case "\"":
		if n := numbers(args); len(n) >= 2 {
			w.gs.wordSpace, w.gs.charSpace = n[0], n[1]
		}
		w.moveLine(0, -w.gs.leading)
		if s, ok := lastString(args); ok {
			w.show([]pdf.Value{s})
		}
	case "TJ":
		if len(args) > 0 && args[len(args)-1].Kind() == pdf.Array {
			arr := args[len(args)-1]
			elems := make([]pdf.Value, arr.Len())
			for i := range elems {
				elems[i] = arr.Index(i)
			}
			w.show(elems)
		}
	case "rg", "g", "k", "sc", "scn":
		if c, ok := colorArg(numbers(args)); ok {
			w.gs.fill = c
		}
	case "cs":
		w.gs.fill = 0
	case "Do":
		if len(args) > 0 && args[len(args)-1].Kind() == pdf.Name {
			w.form(scope, args[len(args)-1].Name())
		}
	}
}

// form runs a Form XObject with its own resources, falling back to the
// invoking scope's when the form declares none.
func (w *textWalker) form(scope *resourceScope, name string) {
	xobj := scope.res.Key("XObject").Key(name)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}
	if w.depth >= maxFormDepth {
		return
	}

	saved, savedTm, savedTlm := w.gs, w.tm, w.tlm
	w.depth++
	defer func() {
		w.gs, w.tm, w.tlm = saved, savedTm, savedTlm
		w.depth--
	}()

	if m, ok := matrixValue(xobj.Key("Matrix")); ok {
		w.gs.ctm = m.mul(w.gs.ctm)
	}
	inner := scope
	if res := xobj.Key("Resources"); !res.IsNull() {
		inner = newScope(res)
	}
	w.walk(xobj, inner)
}

func (w *textWalker) setNum(args []pdf.Value, dst *float64) bool {
	n := numbers(args)
	if len(n) == 0 {
		return false
	}
	*dst = n[len(n)-1]
	return true
}

func (w *textWalker) moveLine(tx, ty float64) {
	w.tlm = translate(tx, ty).mul(w.tlm)
	w.tm = w.tlm
}

// show records one span for a Tj/TJ-style operation and advances the text
// matrix by the drawn width.
func (w *textWalker) show(elems []pdf.Value) {
	face := w.gs.font
	if face == nil {
		face = newFontFace("", pdf.Value{})
	}

	trm := w.tm.mul(w.gs.ctm)
	startX, startY := trm[4], trm[5]

	var text strings.Builder
	advance := 0.0
	for _, el := range elems {
		switch el.Kind() {
		case pdf.String:
			raw := el.RawString()
			text.WriteString(face.decode(raw))
			advance += w.stringAdvance(face, raw)
		case pdf.Integer, pdf.Real:
			num := el.Float64()
			if num <= -wordGapThousandths && text.Len() > 0 {
				text.WriteByte(' ')
			}
			advance -= num / 1000 * w.gs.size * w.gs.hscale
		}
	}

	w.tm = translate(advance, 0).mul(w.tm)

	s := text.String()
	if strings.TrimSpace(s) == "" {
		return
	}

	hScale := math.Hypot(trm[0], trm[1])
	size := w.gs.size * math.Hypot(trm[2], trm[3])

	y := startY
	if w.pageHeight > 0 {
		y = w.pageHeight - startY
	}

	w.spans = append(w.spans, Span{
		Text:     s,
		X:        startX,
		Y:        y,
		Width:    advance * hScale,
		FontSize: math.Round(size*100) / 100,
		FontName: face.name,
		Bold:     face.bold || w.gs.render == renderFillStroke,
		Color:    w.gs.fill,
	})
}

// stringAdvance returns the horizontal advance of raw in text space, using
// the font's widths and an em-based estimate for glyphs without one.
func (w *textWalker) stringAdvance(face *fontFace, raw string) float64 {
	total := 0.0
	for _, code := range face.codes(raw) {
		glyph := face.width(code) / 1000
		if glyph <= 0 {
			glyph = glyphWidthEm
		}
		tx := glyph*w.gs.size + w.gs.charSpace
		if !face.composite && code == ' ' {
			tx += w.gs.wordSpace
		}
		total += tx
	}
	return total * w.gs.hscale
}

func numbers(args []pdf.Value) []float64 {
	var out []float64
	for _, a := range args {
		if k := a.Kind(); k == pdf.Integer || k == pdf.Real {
			out = append(out, a.Float64())
		}
	}
	return out
}

func matrixArg(args []pdf.Value) (matrix, bool) {
	n := numbers(args)
	if len(n) < 6 {
		return matrix{}, false
	}
	var m matrix
	copy(m[:], n[len(n)-6:])
	return m, true
}

// matrixValue reads a six-element array such as a form's /Matrix.
func matrixValue(v pdf.Value) (matrix, bool) {
	if v.Kind() != pdf.Array || v.Len() != 6 {
		return matrix{}, false
	}
	var m matrix
	for i := range m {
		m[i] = v.Index(i).Float64()
	}
	return m, true
}

func lastString(args []pdf.Value) (pdf.Value, bool) {
	if len(args) == 0 || args[len(args)-1].Kind() != pdf.String {
		return pdf.Value{}, false
	}
	return args[len(args)-1], true
}

// colorArg packs gray, RGB or CMYK components into 0xRRGGBB.
func colorArg(n []float64) (int, bool) {
	var r, g, b float64
	switch len(n) {
	case 1:
		r, g, b = n[0], n[0], n[0]
	case 3:
		r, g, b = n[0], n[1], n[2]
	case 4:
		k := 1 - n[3]
		r, g, b = (1-n[0])*k, (1-n[1])*k, (1-n[2])*k
	default:
		return 0, false
	}
	return channel(r)<<16 | channel(g)<<8 | channel(b), true
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// cleanText folds compatibility forms with NFKC, turns tabs and line breaks
// into spaces and drops other control characters along with the
// replacement rune unmapped codes decode to.
func cleanText(runes []rune) string {
	var sb strings.Builder
	for _, r := range runes {
		if r == '\t' || r == '\n' || r == '\r' {
			sb.WriteByte(' ')
			continue
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		sb.WriteRune(r)
	}
	return norm.NFKC.String(sb.String())
}
