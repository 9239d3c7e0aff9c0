package classifier

import "github.com/fyrsmithlabs/sectionrank/internal/heading"

// Classifier standardizes features and asks the model. It is safe for
// concurrent use; nothing is mutated after construction.
type Classifier struct {
	scaler Scaler
	model  Model
}

var _ heading.Confirmer = (*Classifier)(nil)

// New creates a classifier from a scaler and a model.
func New(scaler Scaler, model Model) *Classifier {
	return &Classifier{scaler: scaler, model: model}
}

// IsHeading reports whether the model assigns features to the heading
// class.
func (c *Classifier) IsHeading(features []float64) bool {
	return c.model.Predict(c.scaler.Transform(features))
}
