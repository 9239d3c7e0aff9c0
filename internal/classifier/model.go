// Package classifier confirms heading candidates with a pre-trained model.
//
// A Classifier standardizes the heading feature vector and hands it to a
// Model. Models are loaded from an artifact file, so the statistical
// library used for training never leaks into the pipeline.
package classifier

import (
	"fmt"
)

// Model predicts whether a standardized feature vector is a heading.
type Model interface {
	Predict(features []float64) bool
}

// Scaler standardizes features as (x - mean) / scale. An empty scaler is
// the identity.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Transform returns a standardized copy of x. A zero scale is treated as 1.
func (s Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	if len(s.Mean) == 0 {
		return out
	}
	for i := range out {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (out[i] - s.Mean[i]) / scale
	}
	return out
}

func (s Scaler) validate(n int) error {
	if len(s.Mean) == 0 && len(s.Scale) == 0 {
		return nil
	}
	if len(s.Mean) != n || len(s.Scale) != n {
		return fmt.Errorf("scaler needs %d means and scales, got %d and %d", n, len(s.Mean), len(s.Scale))
	}
	return nil
}

// Logistic is a binary logistic regression. It predicts a heading when the
// decision function is positive.
type Logistic struct {
	Coef      []float64 `yaml:"coef"`
	Intercept float64   `yaml:"intercept"`
}

var _ Model = (*Logistic)(nil)

// Predict implements Model.
func (m *Logistic) Predict(x []float64) bool {
	z := m.Intercept
	for i, c := range m.Coef {
		z += c * x[i]
	}
	return z > 0
}

func (m *Logistic) validate(n int) error {
	if len(m.Coef) != n {
		return fmt.Errorf("logistic needs %d coefficients, got %d", n, len(m.Coef))
	}
	return nil
}

// TreeNode is one node of a decision tree. Internal nodes send a vector
// left when x[Feature] <= Threshold.
type TreeNode struct {
	Leaf      bool    `yaml:"leaf"`
	Class     int     `yaml:"class"`
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
}

// Tree is a binary decision tree rooted at node 0.
type Tree struct {
	Nodes []TreeNode `yaml:"nodes"`
}

var _ Model = (*Tree)(nil)

// Predict implements Model. It walks at most len(Nodes) steps, so a
// malformed cycle yields the negative class rather than hanging.
func (t *Tree) Predict(x []float64) bool {
	i := 0
	for steps := 0; steps < len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Class == 1
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return false
}

func (t *Tree) validate(n int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, node := range t.Nodes {
		if node.Leaf {
			continue
		}
		if node.Feature < 0 || node.Feature >= n {
			return fmt.Errorf("tree node %d: feature %d out of range", i, node.Feature)
		}
		if node.Left < 0 || node.Left >= len(t.Nodes) || node.Right < 0 || node.Right >= len(t.Nodes) {
			return fmt.Errorf("tree node %d: child out of range", i)
		}
	}
	return nil
}

// Condition compares one named feature against a value.
type Condition struct {
	Feature string  `yaml:"feature"`
	Op      string  `yaml:"op"`
	Value   float64 `yaml:"value"`

	index int
}

func (c Condition) holds(x []float64) bool {
	v := x[c.index]
	switch c.Op {
	case ">":
		return v > c.Value
	case ">=":
		return v >= c.Value
	case "<":
		return v < c.Value
	case "<=":
		return v <= c.Value
	}
	return false
}

// Threshold is a hand-tuned rule set. With Match "any" one holding
// condition is enough; otherwise all must hold.
type Threshold struct {
	Match      string      `yaml:"match"`
	Conditions []Condition `yaml:"conditions"`
}

var _ Model = (*Threshold)(nil)

// Predict implements Model.
func (r *Threshold) Predict(x []float64) bool {
	if r.Match == "any" {
		for _, c := range r.Conditions {
			if c.holds(x) {
				return true
			}
		}
		return false
	}
	for _, c := range r.Conditions {
		if !c.holds(x) {
			return false
		}
	}
	return true
}

// resolve maps condition feature names to vector indices.
func (r *Threshold) resolve(names []string) error {
	if len(r.Conditions) == 0 {
		return fmt.Errorf("threshold rule has no conditions")
	}
	if r.Match != "" && r.Match != "all" && r.Match != "any" {
		return fmt.Errorf("unknown threshold match %q", r.Match)
	}
	for i := range r.Conditions {
		c := &r.Conditions[i]
		switch c.Op {
		case ">", ">=", "<", "<=":
		default:
			return fmt.Errorf("condition %d: unknown op %q", i, c.Op)
		}
		c.index = -1
		for j, name := range names {
			if name == c.Feature {
				c.index = j
			}
		}
		if c.index < 0 {
			return fmt.Errorf("condition %d: unknown feature %q", i, c.Feature)
		}
	}
	return nil
}
