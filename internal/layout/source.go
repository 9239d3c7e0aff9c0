package layout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Router dispatches to a Source by file extension: PDFs go to the
// configured PDF engine and stext.json files to STextSource.
type Router struct {
	PDF   Source
	SText Source
}

var _ Source = (*Router)(nil)

// NewRouter builds a Router for engine "native" or "mutool".
func NewRouter(engine, mutoolPath string) (*Router, error) {
	r := &Router{SText: STextSource{}}
	switch engine {
	case "", "native":
		r.PDF = NewPDFSource()
	case "mutool":
		r.PDF = NewMutoolSource(mutoolPath)
	default:
		return nil, fmt.Errorf("unknown layout engine %q", engine)
	}
	return r, nil
}

// Extract routes path to the matching source.
func (r *Router) Extract(ctx context.Context, path string) (*Document, error) {
	switch {
	case IsSText(path):
		return r.SText.Extract(ctx, path)
	case IsPDF(path):
		return r.PDF.Extract(ctx, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// IsPDF reports whether path names a PDF file.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// IsSText reports whether path names a structured-text JSON export.
func IsSText(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), STextExt)
}

// Discover lists the documents in dir, sorted by file name. Only regular
// files with a .pdf or .stext.json suffix are returned.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if IsPDF(name) || IsSText(name) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
