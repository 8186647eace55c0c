package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/synaptica-ai/medtriage/pkg/ml/linear"
)

const AlgorithmMultinomialLogistic = "multinomial_logistic"

// ErrModelUnavailable wraps every failure to load or validate an artifact.
var ErrModelUnavailable = errors.New("model unavailable")

type Artifact struct {
	Model struct {
		Type         string           `json:"type"`
		Algorithm    string           `json:"algorithm"`
		Version      string           `json:"version"`
		FeatureNames []string         `json:"feature_names"`
		Classes      []linear.Weights `json:"classes"`
	} `json:"model"`
	Encoders Encoders `json:"encoders"`
}

// Encoders carries the training-time label vocabularies. Order is
// significant: a label's code is its index.
type Encoders struct {
	Gender    []string `json:"gender"`
	Condition []string `json:"condition"`
	Risk      []string `json:"risk"`
}

// Model is a loaded artifact. It is immutable and safe for concurrent use.
type Model struct {
	name         string
	version      string
	featureNames []string
	encoders     Encoders
	scorer       *linear.Multinomial
}

// Load reads and validates the artifact at path. It is meant to be called
// once at process start.
func Load(path string) (*Model, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: reading artifact: %v", ErrModelUnavailable, err)
	}
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decoding artifact: %v", ErrModelUnavailable, err)
	}
	return FromArtifact(artifact)
}

func FromArtifact(artifact Artifact) (*Model, error) {
	if artifact.Model.Algorithm != AlgorithmMultinomialLogistic {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrModelUnavailable, artifact.Model.Algorithm)
	}
	if len(artifact.Model.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: artifact missing feature names", ErrModelUnavailable)
	}
	scorer, err := linear.NewMultinomial(artifact.Model.Classes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if scorer.NumFeatures() != len(artifact.Model.FeatureNames) {
		return nil, fmt.Errorf("%w: %d feature names for %d coefficients", ErrModelUnavailable, len(artifact.Model.FeatureNames), scorer.NumFeatures())
	}
	enc := artifact.Encoders
	if len(enc.Risk) != scorer.NumClasses() {
		return nil, fmt.Errorf("%w: risk encoder has %d labels for %d classes", ErrModelUnavailable, len(enc.Risk), scorer.NumClasses())
	}
	if len(enc.Gender) == 0 || len(enc.Condition) == 0 {
		return nil, fmt.Errorf("%w: gender and condition encoders required", ErrModelUnavailable)
	}

	return &Model{
		name:         artifact.Model.Type,
		version:      artifact.Model.Version,
		featureNames: cloneStrings(artifact.Model.FeatureNames),
		encoders: Encoders{
			Gender:    cloneStrings(enc.Gender),
			Condition: cloneStrings(enc.Condition),
			Risk:      cloneStrings(enc.Risk),
		},
		scorer: scorer,
	}, nil
}

func (m *Model) Name() string    { return m.name }
func (m *Model) Version() string { return m.version }

func (m *Model) FeatureNames() []string { return cloneStrings(m.featureNames) }

func (m *Model) Encoders() Encoders {
	return Encoders{
		Gender:    cloneStrings(m.encoders.Gender),
		Condition: cloneStrings(m.encoders.Condition),
		Risk:      cloneStrings(m.encoders.Risk),
	}
}

func (m *Model) Predict(features []float64) (int, error) {
	return m.scorer.Predict(features)
}

func (m *Model) PredictProba(features []float64) ([]float64, error) {
	return m.scorer.PredictProba(features)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
