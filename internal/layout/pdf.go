package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFSource extracts lines from PDF files by interpreting each page's
// content stream, Form XObjects included. Fonts are decoded through their
// Encoding, Differences and ToUnicode entries.
//
// Files the reader rejects are rewritten once with pdfcpu in relaxed mode
// and read again; that repairs most broken cross-reference tables.
// Composite fonts without a ToUnicode CMap produce no text; route such
// files through MutoolSource instead.
type PDFSource struct {
	conf *model.Configuration
}

var _ Source = (*PDFSource)(nil)

// NewPDFSource creates a PDF source whose repair pass uses relaxed
// validation, since real world files routinely bend the PDF format rules.
func NewPDFSource() *PDFSource {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFSource{conf: conf}
}

// Extract reads the PDF at path and returns its lines in page order.
func (s *PDFSource) Extract(ctx context.Context, path string) (*Document, error) {
	id := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	r, err := s.open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrExtractionFailed, id, err)
	}

	pages := r.NumPage()
	doc := &Document{ID: id, Path: path, Pages: pages}
	var faults []error
	for pageNr := 1; pageNr <= pages; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// A page whose stream breaks the parser keeps what was drawn
		// before the fault.
		spans, height, err := readPage(r, pageNr)
		if err != nil {
			faults = append(faults, fmt.Errorf("page %d: %w", pageNr, err))
		}

		for _, group := range groupLines(spans) {
			line, ok := LineFromSpans(group, pageNr, height)
			if !ok {
				doc.Skipped++
				continue
			}
			doc.appendValid(line)
		}
	}

	if len(faults) > 0 && len(doc.Lines) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, id, errors.Join(faults...))
	}
	return doc, nil
}

// open parses data, falling back to a pdfcpu rewrite when the file's
// structure cannot be read as is.
func (s *PDFSource) open(data []byte) (*pdf.Reader, error) {
	r, err := newReader(data)
	if err == nil {
		return r, nil
	}

	var repaired bytes.Buffer
	if rerr := api.Optimize(bytes.NewReader(data), &repaired, s.conf); rerr != nil {
		return nil, errors.Join(err, fmt.Errorf("pdfcpu repair: %w", rerr))
	}
	r, rerr := newReader(repaired.Bytes())
	if rerr != nil {
		return nil, errors.Join(err, fmt.Errorf("after pdfcpu repair: %w", rerr))
	}
	return r, nil
}

// newReader opens data and resolves the page tree root, turning the
// reader's panics on corrupt objects into errors.
func newReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if r.NumPage() < 1 {
		return nil, errors.New("malformed PDF: empty page tree")
	}
	return r, nil
}

// pageHeight returns the height of the page's crop box, or of its media box
// when no crop box is set. Zero means unknown.
func pageHeight(page pdf.Page) float64 {
	box := inherited(page.V, "CropBox")
	if box.Len() != 4 {
		box = inherited(page.V, "MediaBox")
	}
	if box.Len() != 4 {
		return 0
	}
	return math.Abs(box.Index(3).Float64() - box.Index(1).Float64())
}

// maxTreeDepth bounds the Parent walk for inheritable page attributes.
const maxTreeDepth = 32

// inherited looks key up on node and then up its Parent chain.
func inherited(node pdf.Value, key string) pdf.Value {
	for i := 0; i < maxTreeDepth && !node.IsNull(); i++ {
		if v := node.Key(key); !v.IsNull() {
			return v
		}
		node = node.Key("Parent")
	}
	return pdf.Value{}
}

// PageHeights returns the height of every page of the PDF at path, keyed by
// 1-based page number. It reads page dimensions with pdfcpu, which copes
// with files the text reader rejects.
func (s *PDFSource) PageHeights(path string) (map[int]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	dims, err := api.PageDims(f, s.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: pdfcpu read %s: %v", ErrExtractionFailed, filepath.Base(path), err)
	}

	heights := make(map[int]float64, len(dims))
	for i, d := range dims {
		heights[i+1] = d.Height
	}
	return heights, nil
}
