package triage

import (
	"errors"
	"fmt"
	"math"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

// FeatureOrder is the input contract of the statistical model.
var FeatureOrder = []string{"Age", "Gender", "BloodPressure", "HeartRate", "Temperature", "Condition"}

// Model is a trained multiclass scorer. Implementations must be safe for
// concurrent read-only use.
type Model interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
}

// Classifier adapts a Model to risk levels and confidence percentages.
type Classifier struct {
	model Model
	risk  Vocabulary
}

// NewClassifier checks that every risk label decodes to a known level.
func NewClassifier(model Model, risk Vocabulary) (*Classifier, error) {
	if model == nil {
		return nil, errors.New("classifier needs a model")
	}
	for _, label := range risk.Labels() {
		if _, err := models.ParseRiskLevel(label); err != nil {
			return nil, fmt.Errorf("risk vocabulary: %w", err)
		}
	}
	return &Classifier{model: model, risk: risk}, nil
}

// Classify returns the predicted level and the top class probability as a
// percentage rounded to two decimals.
func (c *Classifier) Classify(age, genderCode, bp, hr int, temp float64, conditionCode int) (models.RiskLevel, float64, error) {
	features := []float64{
		float64(age),
		float64(genderCode),
		float64(bp),
		float64(hr),
		temp,
		float64(conditionCode),
	}

	idx, err := c.model.Predict(features)
	if err != nil {
		return "", 0, fmt.Errorf("predict: %w", err)
	}
	label, err := c.risk.Decode(idx)
	if err != nil {
		return "", 0, err
	}
	level, err := models.ParseRiskLevel(label)
	if err != nil {
		return "", 0, err
	}

	proba, err := c.model.PredictProba(features)
	if err != nil {
		return "", 0, fmt.Errorf("predict proba: %w", err)
	}
	if len(proba) == 0 {
		return "", 0, errors.New("model returned no probabilities")
	}
	top := proba[0]
	for _, p := range proba[1:] {
		if p > top {
			top = p
		}
	}
	return level, roundPercent(top), nil
}

func roundPercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}

// ValidateFeatureOrder reports whether names match FeatureOrder exactly.
func ValidateFeatureOrder(names []string) error {
	if len(names) != len(FeatureOrder) {
		return fmt.Errorf("model declares %d features, want %d", len(names), len(FeatureOrder))
	}
	for i, name := range names {
		if name != FeatureOrder[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, FeatureOrder[i])
		}
	}
	return nil
}
