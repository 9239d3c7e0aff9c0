// Package ranking orders accepted heading candidates by relevance to a query.
package ranking

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
)

var (
	// ErrNilContext is returned when a nil context is passed to Rank.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmbeddingFailed is returned when candidate vectors cannot be produced
	// or do not line up with the query vector.
	ErrEmbeddingFailed = errors.New("ranking embedding failed")
)

// Embedder produces one vector per text, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// RankedSection is a candidate with its relevance score.
type RankedSection struct {
	Candidate heading.Candidate
	Score     float64 // Cosine similarity to the query
	Rank      int     // 1-based position in the combined order
}

// Ranker orders candidates by relevance to a query vector.
type Ranker interface {
	// Rank scores every candidate against query and returns all of them
	// sorted by Score descending. Equal scores keep their input order.
	//
	// The caller is responsible for ensuring ctx is not nil.
	Rank(ctx context.Context, query []float32, candidates []heading.Candidate) ([]RankedSection, error)
}

// Unranked returns candidates in their given order with zero scores.
// It is the fallback when embeddings are unavailable and ranking is not strict.
func Unranked(candidates []heading.Candidate) []RankedSection {
	out := make([]RankedSection, len(candidates))
	for i, c := range candidates {
		out[i] = RankedSection{Candidate: c, Rank: i + 1}
	}
	return out
}
