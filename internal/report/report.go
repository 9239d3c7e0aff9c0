// Package report renders pipeline results: the ranked batch report, the
// per-document outlines and the candidate CSV export.
package report

import (
	"time"

	"github.com/fyrsmithlabs/sectionrank/internal/ranking"
)

// TimestampLayout is the format of Metadata.ProcessingTimestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Report is the batch output.
type Report struct {
	Metadata           Metadata     `json:"metadata"`
	ExtractedSections  []Section    `json:"extracted_sections"`
	SubsectionAnalysis []Subsection `json:"subsection_analysis"`
}

// Metadata describes the run that produced a report.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
	RunID               string   `json:"run_id"`

	// Ranked is false when embeddings failed and sections are listed in
	// extraction order.
	Ranked          bool     `json:"ranked"`
	FailedDocuments []string `json:"failed_documents"`
}

// Section is one ranked heading.
type Section struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// Subsection carries the text of a section, in the same order as the
// extracted sections.
type Subsection struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Timestamp formats t (in UTC) for Metadata.ProcessingTimestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Build assembles a report from ranked sections. Slices are never nil so
// they encode as [] rather than null.
func Build(meta Metadata, ranked []ranking.RankedSection) *Report {
	if meta.InputDocuments == nil {
		meta.InputDocuments = []string{}
	}
	if meta.FailedDocuments == nil {
		meta.FailedDocuments = []string{}
	}

	r := &Report{
		Metadata:           meta,
		ExtractedSections:  make([]Section, len(ranked)),
		SubsectionAnalysis: make([]Subsection, len(ranked)),
	}
	for i, s := range ranked {
		c := s.Candidate
		r.ExtractedSections[i] = Section{
			Document:       c.DocumentID,
			SectionTitle:   c.Text,
			ImportanceRank: s.Rank,
			PageNumber:     c.Page,
		}
		r.SubsectionAnalysis[i] = Subsection{
			Document:    c.DocumentID,
			RefinedText: c.Text,
			PageNumber:  c.Page,
		}
	}
	return r
}
