package embeddings

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// HashEmbedder is a deterministic bag-of-words embedder: each lowercased
// token is hashed into one of Dimension buckets with a hash-derived sign,
// and the vector is L2-normalized. It needs no model files, which makes it
// the provider for offline runs and tests.
type HashEmbedder struct {
	dimension int
}

var _ Provider = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash embedder with the given vector size.
func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: hash dimension must be positive, got %d", ErrInvalidConfig, dimension)
	}
	return &HashEmbedder{dimension: dimension}, nil
}

// EmbedDocuments embeds each text independently.
func (h *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

// EmbedQuery embeds a single text.
func (h *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(text), nil
}

// Dimension returns the vector size.
func (h *HashEmbedder) Dimension() int { return h.dimension }

// Close is a no-op.
func (h *HashEmbedder) Close() error { return nil }

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		sum := xxhash.Sum64String(tok)
		idx := sum % uint64(h.dimension)
		if sum>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
