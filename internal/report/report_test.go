package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
	"github.com/fyrsmithlabs/sectionrank/internal/ranking"
)

func TestBuild(t *testing.T) {
	ranked := []ranking.RankedSection{
		{Candidate: heading.Candidate{DocumentID: "b.pdf", Text: "Nightlife", Page: 4}, Score: 0.8, Rank: 1},
		{Candidate: heading.Candidate{DocumentID: "a.pdf", Text: "Cuisine", Page: 2}, Score: 0.5, Rank: 2},
	}
	r := Build(Metadata{Persona: "Travel Planner", JobToBeDone: "Plan a trip", Ranked: true}, ranked)

	assert.Equal(t, []Section{
		{Document: "b.pdf", SectionTitle: "Nightlife", ImportanceRank: 1, PageNumber: 4},
		{Document: "a.pdf", SectionTitle: "Cuisine", ImportanceRank: 2, PageNumber: 2},
	}, r.ExtractedSections)
	assert.Equal(t, []Subsection{
		{Document: "b.pdf", RefinedText: "Nightlife", PageNumber: 4},
		{Document: "a.pdf", RefinedText: "Cuisine", PageNumber: 2},
	}, r.SubsectionAnalysis)
	assert.NotNil(t, r.Metadata.InputDocuments)
	assert.NotNil(t, r.Metadata.FailedDocuments)
}

func TestBuild_EncodesEmptyListsAsArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_output.json")
	require.NoError(t, WriteJSON(path, Build(Metadata{}, nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.Metadata.Ranked)

	assert.Contains(t, string(data), `"extracted_sections": []`)
	assert.Contains(t, string(data), `"subsection_analysis": []`)
	assert.Contains(t, string(data), `"failed_documents": []`)
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	ts := Timestamp(time.Date(2024, 3, 1, 12, 30, 15, 123456000, loc))
	assert.Equal(t, "2024-03-01T10:30:15.123456", ts)
}

func TestWriteJSON_KeepsNonASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSON(path, map[string]string{"title": "Café & Crème <b>"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"title\": \"Café & Crème <b>\"\n}\n", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestBuildOutline(t *testing.T) {
	cands := []heading.Candidate{
		{Text: "Overview", Page: 1, Level: heading.H2},
		{Text: "Introduction", Page: 1, Level: heading.H1},
		{Text: "Chapter 2", Page: 3, Level: heading.H1},
	}

	tests := []struct {
		name      string
		cands     []heading.Candidate
		policy    string
		wantTitle string
	}{
		{"first h1", cands, TitleFirstH1, "Introduction"},
		{"first heading", cands, TitleFirstHeading, "Overview"},
		{"no h1 falls back", cands[:1], TitleFirstH1, "Overview"},
		{"no headings", nil, TitleFirstH1, UnknownTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := BuildOutline(tt.cands, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, o.Title)
			assert.Len(t, o.Outline, len(tt.cands))
			assert.NotNil(t, o.Outline)
		})
	}

	o, err := BuildOutline(cands, TitleFirstH1)
	require.NoError(t, err)
	assert.Equal(t, OutlineEntry{Level: heading.H1, Text: "Chapter 2", Page: 3}, o.Outline[2])

	_, err = BuildOutline(cands, "longest")
	assert.Error(t, err)
}

func TestOutlinePath(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"guide.pdf", "out/guide.json"},
		{"Guide.PDF", "out/Guide.json"},
		{"guide.stext.json", "out/guide.json"},
		{"south.of.france.pdf", "out/south.of.france.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.FromSlash(tt.want), OutlinePath("out", tt.doc), tt.doc)
	}
}

func TestWriteCandidates(t *testing.T) {
	cands := []heading.Candidate{
		{
			DocumentID: "a.pdf", Page: 1, Text: "Intro, part 1", FontSize: 16, EffectiveBold: true,
			X: 72, Y: 100, CharLength: 13, BodyFontSize: 10.5, Level: heading.H1,
		},
		{
			DocumentID: "a.pdf", Page: 2, Text: "Methods", FontSize: 12.5,
			X: 72, Y: 300, CharLength: 7, BodyFontSize: 10.5, Level: heading.H2,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCandidates(&buf, cands))

	out := buf.String()
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	want := "document,page,text,font_size,is_bold,x,y,char_length,body_font_size,heading_level,heading\n" +
		"a.pdf,1,\"Intro, part 1\",16,1,72,100,13,10.5,H1,1\n" +
		"a.pdf,2,Methods,12.5,0,72,300,7,10.5,H2,1\n"
	assert.Equal(t, want, out[len(utf8BOM):])
}

func TestWriteCandidatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.csv")
	require.NoError(t, WriteCandidatesFile(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(utf8BOM)+"document,page,text,font_size,is_bold,x,y,char_length,body_font_size,heading_level,heading\n", string(data))
}
