package layout

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// boldFontPattern marks font names that carry a heavy weight.
var boldFontPattern = regexp.MustCompile(`(?i)bold|black`)

// IsBoldFont reports whether a font name indicates a bold or black weight.
func IsBoldFont(name string) bool {
	return boldFontPattern.MatchString(name)
}

const (
	// forceBoldFlag is bit 19 of the FontDescriptor Flags entry.
	forceBoldFlag = 1 << 18

	// boldWeight is the FontDescriptor FontWeight from which a face counts
	// as bold.
	boldWeight = 700

	// defaultCIDWidth is the DW default for CID fonts, in glyph space units.
	defaultCIDWidth = 1000
)

// fontFace is the part of a PDF font resource the text walker needs: a
// display name, a weight hint, a decoder from character codes to Unicode
// and glyph widths for advancing the text position.
type fontFace struct {
	name string
	bold bool

	// composite fonts use two-byte character codes.
	composite bool

	// readable is false when codes cannot be mapped to Unicode, such as
	// a composite font without a ToUnicode CMap. Text drawn with an
	// unreadable face is dropped rather than emitted as glyph ids.
	readable bool

	enc    pdf.TextEncoding
	simple pdf.Font
	widths map[int]float64
	dw     float64
}

// newFontFace interprets the font dictionary v registered under the
// resource name resName. A missing dictionary yields a face named after the
// resource whose bytes are read as Latin-1.
func newFontFace(resName string, v pdf.Value) *fontFace {
	f := &fontFace{name: resName, readable: true}
	if v.IsNull() {
		return f
	}

	if base := v.Key("BaseFont").Name(); base != "" {
		f.name = stripSubsetPrefix(base)
	}

	descriptor := v.Key("FontDescriptor")
	if v.Key("Subtype").Name() == "Type0" {
		f.composite = true
		descendant := v.Key("DescendantFonts").Index(0)
		if descriptor.IsNull() {
			descriptor = descendant.Key("FontDescriptor")
		}
		f.loadCIDWidths(descendant)

		// The library maps two-byte codes through ToUnicode only for the
		// Identity CMaps; any other encoding returns raw code bytes.
		identity := strings.HasPrefix(v.Key("Encoding").Name(), "Identity-")
		f.readable = identity && v.Key("ToUnicode").Kind() == pdf.Stream
	} else {
		f.simple = pdf.Font{V: v}
	}

	if f.readable {
		f.enc = pdf.Font{V: v}.Encoder()
	}

	flags := descriptor.Key("Flags").Int64()
	f.bold = IsBoldFont(f.name) ||
		flags&forceBoldFlag != 0 ||
		descriptor.Key("FontWeight").Float64() >= boldWeight
	return f
}

// loadCIDWidths reads the DW and W entries of a descendant CID font. W
// mixes two forms: `c [w1 w2 ...]` and `cFirst cLast w`.
func (f *fontFace) loadCIDWidths(cid pdf.Value) {
	f.dw = defaultCIDWidth
	if dw := cid.Key("DW"); dw.Kind() == pdf.Integer || dw.Kind() == pdf.Real {
		f.dw = dw.Float64()
	}

	f.widths = map[int]float64{}
	w := cid.Key("W")
	for i := 0; i < w.Len(); {
		first := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				f.widths[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := first; c <= last && c-first < maxCIDRange; c++ {
			f.widths[c] = width
		}
		i += 3
	}
}

// maxCIDRange caps a single `cFirst cLast w` run so a corrupt W array
// cannot allocate without bound.
const maxCIDRange = 1 << 16

// codes splits raw string bytes into character codes.
func (f *fontFace) codes(raw string) []int {
	if !f.composite {
		out := make([]int, len(raw))
		for i := 0; i < len(raw); i++ {
			out[i] = int(raw[i])
		}
		return out
	}
	out := make([]int, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		out = append(out, int(raw[i])<<8|int(raw[i+1]))
	}
	return out
}

// width returns the advance of code in thousandths of an em, or 0 when the
// font carries no metrics for it.
func (f *fontFace) width(code int) float64 {
	if f.composite {
		if w, ok := f.widths[code]; ok {
			return w
		}
		return f.dw
	}
	if f.simple.V.IsNull() {
		return 0
	}
	return f.simple.Width(code)
}

// decode maps raw string bytes to text. Unreadable faces yield "".
func (f *fontFace) decode(raw string) string {
	if !f.readable {
		return ""
	}
	if f.enc == nil {
		runes := make([]rune, len(raw))
		for i := 0; i < len(raw); i++ {
			runes[i] = rune(raw[i])
		}
		return cleanText(runes)
	}
	return cleanText([]rune(f.enc.Decode(raw)))
}

// stripSubsetPrefix removes the ABCDEF+ tag embedded subsets carry.
func stripSubsetPrefix(name string) string {
	if len(name) > 7 && name[6] == '+' {
		for i := 0; i < 6; i++ {
			if name[i] < 'A' || name[i] > 'Z' {
				return name
			}
		}
		return name[7:]
	}
	return name
}
