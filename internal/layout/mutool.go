package layout

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// MutoolSource extracts PDF lines by running `mutool draw -F stext.json`
// and reading its structured-text output. Page heights come from pdfcpu so
// the running header/footer band still applies.
type MutoolSource struct {
	bin string
	pdf *PDFSource
}

var _ Source = (*MutoolSource)(nil)

// NewMutoolSource creates a source that runs the mutool binary at bin.
func NewMutoolSource(bin string) *MutoolSource {
	if bin == "" {
		bin = "mutool"
	}
	return &MutoolSource{bin: bin, pdf: NewPDFSource()}
}

// Extract converts the PDF at path and parses the result.
func (m *MutoolSource) Extract(ctx context.Context, path string) (*Document, error) {
	tmp, err := os.MkdirTemp("", "sectionrank-stext-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, "out"+STextExt)
	cmd := exec.CommandContext(ctx, m.bin, "draw", "-q", "-F", "stext.json", "-o", out, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: mutool %s: %v: %s", ErrExtractionFailed, filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	// Heights are best effort; a file mutool renders but pdfcpu rejects
	// simply loses the margin band.
	heights, err := m.pdf.PageHeights(path)
	if err != nil {
		heights = nil
	}

	return parseSText(f, filepath.Base(path), path, heights)
}
