package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// STextExt is the file suffix of MuPDF structured-text JSON exports.
const STextExt = ".stext.json"

// stext mirrors the JSON produced by `mutool draw -F stext.json`.
type stext struct {
	Pages []stextPage `json:"pages"`
}

type stextPage struct {
	Blocks []stextBlock `json:"blocks"`
}

type stextBlock struct {
	Type  string      `json:"type"`
	Lines []stextLine `json:"lines"`
}

type stextLine struct {
	Font stextFont `json:"font"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Text string    `json:"text"`
}

type stextFont struct {
	Name   string  `json:"name"`
	Weight string  `json:"weight"`
	Size   float64 `json:"size"`
}

// STextSource reads pre-computed MuPDF structured-text JSON files. The
// format carries no page sizes or colors, so lines from it have no margin
// band and a zero color.
type STextSource struct{}

var _ Source = STextSource{}

// Extract reads the stext.json file at path.
func (STextSource) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	return parseSText(f, filepath.Base(path), path, nil)
}

// parseSText decodes stext JSON into a Document. heights optionally supplies
// page heights by 1-based page number.
func parseSText(r io.Reader, id, path string, heights map[int]float64) (*Document, error) {
	var st stext
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrExtractionFailed, id, err)
	}

	doc := &Document{ID: id, Path: path, Pages: len(st.Pages)}
	for i, page := range st.Pages {
		pageNr := i + 1
		for _, block := range page.Blocks {
			if block.Type != "" && block.Type != "text" {
				continue
			}
			for _, l := range block.Lines {
				span := Span{
					Text:     decodeSTextLine(l.Text),
					X:        l.X,
					Y:        l.Y,
					FontSize: l.Font.Size,
					FontName: l.Font.Name,
					Bold:     strings.EqualFold(l.Font.Weight, "bold") || IsBoldFont(l.Font.Name),
				}
				line, ok := LineFromSpans([]Span{span}, pageNr, heights[pageNr])
				if !ok {
					doc.Skipped++
					continue
				}
				doc.appendValid(line)
			}
		}
	}
	return doc, nil
}

// decodeSTextLine applies the same cleanup as decoded PDF strings.
func decodeSTextLine(s string) string {
	return cleanText([]rune(s))
}
