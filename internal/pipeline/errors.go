package pipeline

import (
	"errors"

	"github.com/fyrsmithlabs/sectionrank/internal/classifier"
)

var (
	// ErrMissingBodyStyle marks a document with no usable lines. It
	// contributes no candidates; the batch continues.
	ErrMissingBodyStyle = errors.New("document has no usable body text")

	// ErrClassifierUnavailable is returned when the heading model cannot be
	// loaded. It is reported before any document is read.
	ErrClassifierUnavailable = classifier.ErrUnavailable

	// ErrEmbeddingFailure is returned when the query or candidates cannot be
	// embedded and ranking is strict.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrMalformedQuery is returned when no persona and job can be found.
	ErrMalformedQuery = errors.New("malformed query metadata")
)
