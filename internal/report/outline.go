package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
)

// UnknownTitle is the outline title of a document without headings.
const UnknownTitle = "Unknown Document"

// Title policies.
const (
	TitleFirstH1      = "first-h1"
	TitleFirstHeading = "first-heading"
)

// Outline is the heading structure of one document.
type Outline struct {
	Title   string         `json:"title"`
	Outline []OutlineEntry `json:"outline"`
}

// OutlineEntry is one heading in an outline.
type OutlineEntry struct {
	Level heading.Level `json:"level"`
	Text  string        `json:"text"`
	Page  int           `json:"page"`
}

// BuildOutline lists candidates in document order and picks a title.
//
// With TitleFirstH1 the title is the first H1, falling back to the first
// heading. With TitleFirstHeading it is the first heading.
func BuildOutline(candidates []heading.Candidate, policy string) (Outline, error) {
	if policy != TitleFirstH1 && policy != TitleFirstHeading {
		return Outline{}, fmt.Errorf("unknown title policy %q", policy)
	}

	o := Outline{Title: UnknownTitle, Outline: make([]OutlineEntry, 0, len(candidates))}
	firstH1 := -1
	for i, c := range candidates {
		o.Outline = append(o.Outline, OutlineEntry{Level: c.Level, Text: c.Text, Page: c.Page})
		if firstH1 < 0 && c.Level == heading.H1 {
			firstH1 = i
		}
	}

	switch {
	case len(candidates) == 0:
	case policy == TitleFirstH1 && firstH1 >= 0:
		o.Title = candidates[firstH1].Text
	default:
		o.Title = candidates[0].Text
	}
	return o, nil
}

// OutlinePath returns <dir>/<base>.json for a document file name. Both
// ".pdf" and ".stext.json" suffixes are stripped.
func OutlinePath(dir, documentID string) string {
	base := filepath.Base(documentID)
	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, ".stext.json"):
		base = base[:len(base)-len(".stext.json")]
	default:
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(dir, base+".json")
}
