package layout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.stext.json", "C.PDF", "query.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	paths, err := Discover(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"C.PDF", "a.stext.json", "b.pdf"}, names)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestNewRouter(t *testing.T) {
	r, err := NewRouter("native", "")
	require.NoError(t, err)
	assert.IsType(t, &PDFSource{}, r.PDF)

	r, err = NewRouter("mutool", "/opt/mupdf/bin/mutool")
	require.NoError(t, err)
	require.IsType(t, &MutoolSource{}, r.PDF)
	assert.Equal(t, "/opt/mupdf/bin/mutool", r.PDF.(*MutoolSource).bin)

	_, err = NewRouter("poppler", "")
	assert.Error(t, err)
}

func TestRouter_UnsupportedFormat(t *testing.T) {
	r, err := NewRouter("", "")
	require.NoError(t, err)

	_, err = r.Extract(context.Background(), "notes.docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRouter_RoutesSText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.stext.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleSText), 0o600))

	r := &Router{SText: STextSource{}, PDF: NewPDFSource()}
	doc, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "doc.stext.json", doc.ID)
}

func TestPDFSource_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

	_, err := NewPDFSource().Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestMutoolSource_MissingBinary(t *testing.T) {
	src := NewMutoolSource(filepath.Join(t.TempDir(), "no-such-mutool"))

	_, err := src.Extract(context.Background(), "whatever.pdf")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}
