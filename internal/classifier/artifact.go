package classifier

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/sectionrank/internal/heading"
)

// ErrUnavailable is returned when the model artifact cannot be loaded.
var ErrUnavailable = errors.New("heading classifier unavailable")

// maxArtifactSize bounds the artifact file read.
const maxArtifactSize = 8 * 1024 * 1024

// Artifact is the on-disk model description. JSON artifacts load too, since
// JSON is valid YAML.
type Artifact struct {
	// Kind selects the model: "logistic", "tree" or "threshold".
	Kind string `yaml:"kind"`

	// Features optionally records the training feature order; when present
	// it must match the pipeline's order.
	Features []string `yaml:"features"`

	Scaler    Scaler     `yaml:"scaler"`
	Logistic  *Logistic  `yaml:"logistic"`
	Tree      *Tree      `yaml:"tree"`
	Threshold *Threshold `yaml:"threshold"`
}

// LoadArtifact reads and validates the artifact at path.
func LoadArtifact(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	c, err := ParseArtifact(io.LimitReader(f, maxArtifactSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseArtifact decodes an artifact and builds its classifier.
func ParseArtifact(r io.Reader) (*Classifier, error) {
	var a Artifact
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", ErrUnavailable, err)
	}

	model, err := a.build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return New(a.Scaler, model), nil
}

func (a *Artifact) build() (Model, error) {
	names := heading.FeatureNames
	n := len(names)

	if len(a.Features) > 0 {
		if len(a.Features) != n {
			return nil, fmt.Errorf("artifact has %d features, want %d", len(a.Features), n)
		}
		for i := range names {
			if a.Features[i] != names[i] {
				return nil, fmt.Errorf("feature %d is %q, want %q", i, a.Features[i], names[i])
			}
		}
	}
	if err := a.Scaler.validate(n); err != nil {
		return nil, err
	}

	switch a.Kind {
	case "logistic":
		if a.Logistic == nil {
			return nil, errors.New("logistic section missing")
		}
		return a.Logistic, a.Logistic.validate(n)
	case "tree":
		if a.Tree == nil {
			return nil, errors.New("tree section missing")
		}
		return a.Tree, a.Tree.validate(n)
	case "threshold":
		if a.Threshold == nil {
			return nil, errors.New("threshold section missing")
		}
		return a.Threshold, a.Threshold.resolve(names)
	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}
}
