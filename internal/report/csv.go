package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
)

// utf8BOM lets spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CandidateColumns is the header of the candidate export.
var CandidateColumns = []string{
	"document", "page", "text", "font_size", "is_bold",
	"x", "y", "char_length", "body_font_size", "heading_level", "heading",
}

// WriteCandidates writes candidates as CSV, prefixed with a UTF-8 BOM.
// Every row is labeled heading=1; the export seeds classifier training data.
func WriteCandidates(w io.Writer, candidates []heading.Candidate) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CandidateColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range candidates {
		bold := "0"
		if c.EffectiveBold {
			bold = "1"
		}
		row := []string{
			c.DocumentID,
			strconv.Itoa(c.Page),
			c.Text,
			formatFloat(c.FontSize),
			bold,
			strconv.Itoa(c.X),
			strconv.Itoa(c.Y),
			strconv.Itoa(c.CharLength),
			formatFloat(c.BodyFontSize),
			string(c.Level),
			"1",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteCandidatesFile writes the candidate export to path atomically.
func WriteCandidatesFile(path string, candidates []heading.Candidate) error {
	var buf bytes.Buffer
	if err := WriteCandidates(&buf, candidates); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
