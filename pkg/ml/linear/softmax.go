package linear

import (
	"errors"
	"fmt"
	"math"
)

var ErrDimensionMismatch = errors.New("feature dimension mismatch")

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// Multinomial is a softmax regression with one weight vector per class.
// It holds no mutable state after construction.
type Multinomial struct {
	classes  []Weights
	features int
}

func NewMultinomial(classes []Weights) (*Multinomial, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("multinomial model needs at least two classes, got %d", len(classes))
	}
	features := len(classes[0].Coefficients)
	if features == 0 {
		return nil, errors.New("multinomial model has no coefficients")
	}
	copied := make([]Weights, len(classes))
	for i, w := range classes {
		if len(w.Coefficients) != features {
			return nil, fmt.Errorf("class %d has %d coefficients, want %d: %w", i, len(w.Coefficients), features, ErrDimensionMismatch)
		}
		coeffs := make([]float64, features)
		copy(coeffs, w.Coefficients)
		copied[i] = Weights{Bias: w.Bias, Coefficients: coeffs}
	}
	return &Multinomial{classes: copied, features: features}, nil
}

func (m *Multinomial) NumClasses() int  { return len(m.classes) }
func (m *Multinomial) NumFeatures() int { return m.features }

func (m *Multinomial) Logits(sample []float64) ([]float64, error) {
	if len(sample) != m.features {
		return nil, fmt.Errorf("got %d features, want %d: %w", len(sample), m.features, ErrDimensionMismatch)
	}
	logits := make([]float64, len(m.classes))
	for i, w := range m.classes {
		logits[i] = dot(w.Coefficients, sample) + w.Bias
	}
	return logits, nil
}

// Predict returns the index of the highest-scoring class. Ties go to the
// lowest index.
func (m *Multinomial) Predict(sample []float64) (int, error) {
	logits, err := m.Logits(sample)
	if err != nil {
		return 0, err
	}
	return argmax(logits), nil
}

func (m *Multinomial) PredictProba(sample []float64) ([]float64, error) {
	logits, err := m.Logits(sample)
	if err != nil {
		return nil, err
	}
	return softmax(logits), nil
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func softmax(logits []float64) []float64 {
	peak := logits[argmax(logits)]
	out := make([]float64, len(logits))
	var sum float64
	for i, z := range logits {
		out[i] = math.Exp(z - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
