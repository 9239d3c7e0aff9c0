package layout

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageHeight = 792.0

// buildPDF assembles a PDF with a classic cross-reference table. objects[i]
// becomes object i+1; object 1 must be the catalog.
func buildPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pdfStream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// Font objects shared by the single-page fixtures, numbered from 5.
const (
	timesRoman    = "<< /Type /Font /Subtype /Type1 /BaseFont /Times-Roman >>"
	helveticaBold = "<< /Type /Font /Subtype /Type1 /BaseFont /ABCDEF+Helvetica-Bold /Encoding /WinAnsiEncoding >>"

	standardFonts = "<< /Font << /F1 5 0 R /F2 6 0 R >> >>"
)

// singlePage builds a one-page US Letter document. The media box sits on
// the page tree node so it has to be inherited. extra objects are numbered
// from 5 on.
func singlePage(content, resources string, extra ...string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>",
		"<< /Type /Page /Parent 2 0 R /Resources " + resources + " /Contents 4 0 R >>",
		pdfStream("", content),
	}
	return buildPDF(append(objects, extra...)...)
}

// standardPage draws content with F1 (Times-Roman) and F2 (Helvetica-Bold).
func standardPage(content string) []byte {
	return singlePage(content, standardFonts, timesRoman, helveticaBold)
}

func readSpans(t *testing.T, data []byte) []Span {
	t.Helper()
	r, err := newReader(data)
	require.NoError(t, err)

	spans, height, err := readPage(r, 1)
	require.NoError(t, err)
	assert.Equal(t, pageHeight, height)
	return spans
}

func writePDF(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPDFSource_Extract(t *testing.T) {
	path := writePDF(t, "guide.pdf", standardPage(`BT
/F2 18 Tf 72 700 Td (Coastal Cuisine) Tj
/F1 10 Tf 0 -30 Td (Fresh seafood is served along the whole coast.) Tj
ET`))

	doc, err := NewPDFSource().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "guide.pdf", doc.ID)
	assert.Equal(t, 1, doc.Pages)
	require.Len(t, doc.Lines, 2)

	assert.Equal(t, RawLine{
		Text: "Coastal Cuisine", Page: 1, FontSize: 18, FontName: "Helvetica-Bold",
		Bold: true, X: 72, Y: 92, Baseline: 92, PageHeight: pageHeight,
	}, doc.Lines[0])
	assert.Equal(t, "Times-Roman", doc.Lines[1].FontName)
	assert.Equal(t, 122, doc.Lines[1].Y)
}

func TestPDFSource_ExtractCancelled(t *testing.T) {
	path := writePDF(t, "guide.pdf", standardPage(`BT /F1 10 Tf (x) Tj ET`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDFSource().Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFSource_BrokenContentFailsDocument(t *testing.T) {
	path := writePDF(t, "broken.pdf", standardPage(`BT /F1 10 Tf ) Tj ET`))

	_, err := NewPDFSource().Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestPDFSource_BrokenContentKeepsEarlierText(t *testing.T) {
	path := writePDF(t, "partial.pdf", standardPage(`BT /F1 10 Tf 72 700 Td (Before the fault) Tj ) Tj ET`))

	doc, err := NewPDFSource().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "Before the fault", doc.Lines[0].Text)
}

func TestNewReader_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a pdf", []byte("not a pdf")},
		{"truncated", standardPage(`BT ET`)[:200]},
		{"empty page tree", buildPDF(
			"<< /Type /Catalog /Pages 2 0 R >>",
			"<< /Type /Pages /Kids [] /Count 0 >>",
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newReader(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestPageHeight_PrefersCropBox(t *testing.T) {
	data := buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>",
		"<< /Type /Page /Parent 2 0 R /CropBox [0 50 612 750] /Resources << >> /Contents 4 0 R >>",
		pdfStream("", ""),
	)
	r, err := newReader(data)
	require.NoError(t, err)

	spans, height, err := readPage(r, 1)
	require.NoError(t, err)
	assert.Empty(t, spans)
	assert.Equal(t, 700.0, height)
}
