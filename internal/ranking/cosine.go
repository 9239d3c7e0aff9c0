package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
)

const instrumentationName = "github.com/fyrsmithlabs/sectionrank/internal/ranking"

// epsilon guards the cosine denominator against zero-norm vectors.
const epsilon = 1e-8

// CosineRanker scores candidates by cosine similarity between their text
// embedding and the query vector.
type CosineRanker struct {
	embedder Embedder
	tracer   trace.Tracer
}

// Option configures a CosineRanker.
type Option func(*CosineRanker)

// WithTracer sets the tracer used for the ranking.Rank span.
func WithTracer(t trace.Tracer) Option {
	return func(r *CosineRanker) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewCosineRanker creates a ranker that embeds candidate texts with embedder.
func NewCosineRanker(embedder Embedder, opts ...Option) *CosineRanker {
	r := &CosineRanker{
		embedder: embedder,
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank embeds all candidate texts in one batch, scores them against query
// and stable-sorts them by score descending. No candidate is dropped.
func (r *CosineRanker) Rank(ctx context.Context, query []float32, candidates []heading.Candidate) ([]RankedSection, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(candidates) == 0 {
		return []RankedSection{}, nil
	}

	ctx, span := r.tracer.Start(ctx, "ranking.Rank",
		trace.WithAttributes(attribute.Int("ranking.candidates", len(candidates))))
	defer span.End()

	if len(query) == 0 {
		return nil, r.fail(span, fmt.Errorf("%w: empty query vector", ErrEmbeddingFailed))
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, r.fail(span, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err))
	}
	if len(vectors) != len(candidates) {
		return nil, r.fail(span, fmt.Errorf("%w: got %d vectors for %d candidates",
			ErrEmbeddingFailed, len(vectors), len(candidates)))
	}

	ranked := make([]RankedSection, len(candidates))
	for i, c := range candidates {
		if len(vectors[i]) != len(query) {
			return nil, r.fail(span, fmt.Errorf("%w: candidate %d has dimension %d, query has %d",
				ErrEmbeddingFailed, i, len(vectors[i]), len(query)))
		}
		ranked[i] = RankedSection{Candidate: c, Score: Cosine(vectors[i], query)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	span.SetAttributes(attribute.Float64("ranking.top_score", ranked[0].Score))
	return ranked, nil
}

func (r *CosineRanker) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Cosine returns dot(a,b) / max(|a|*|b|, epsilon). Vectors must share a length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / math.Max(math.Sqrt(na)*math.Sqrt(nb), epsilon)
}
