package triage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

type stubModel struct {
	class    int
	proba    []float64
	err      error
	features []float64
}

func (m *stubModel) Predict(features []float64) (int, error) {
	m.features = features
	return m.class, m.err
}

func (m *stubModel) PredictProba(features []float64) ([]float64, error) {
	return m.proba, m.err
}

func riskVocab(t *testing.T) Vocabulary {
	t.Helper()
	vocab, err := NewVocabulary("risk", []string{"High", "Low", "Medium"})
	require.NoError(t, err)
	return vocab
}

func TestClassifyBuildsFeaturesInContractOrder(t *testing.T) {
	model := &stubModel{class: 2, proba: []float64{0.1, 0.2, 0.7}}
	classifier, err := NewClassifier(model, riskVocab(t))
	require.NoError(t, err)

	level, confidence, err := classifier.Classify(54, 1, 150, 95, 37.4, 3)
	require.NoError(t, err)

	assert.Equal(t, models.RiskMedium, level)
	assert.Equal(t, 70.0, confidence)
	assert.Equal(t, []float64{54, 1, 150, 95, 37.4, 3}, model.features)
}

func TestClassifyRoundsConfidenceToTwoDecimals(t *testing.T) {
	model := &stubModel{class: 0, proba: []float64{0.876543, 0.1, 0.023457}}
	classifier, err := NewClassifier(model, riskVocab(t))
	require.NoError(t, err)

	level, confidence, err := classifier.Classify(30, 0, 120, 70, 36.8, 0)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, level)
	assert.Equal(t, 87.65, confidence)
}

func TestClassifyPropagatesModelErrors(t *testing.T) {
	classifier, err := NewClassifier(&stubModel{err: errors.New("boom")}, riskVocab(t))
	require.NoError(t, err)

	_, _, err = classifier.Classify(30, 0, 120, 70, 36.8, 0)
	assert.Error(t, err)
}

func TestClassifyRejectsOutOfRangeClass(t *testing.T) {
	classifier, err := NewClassifier(&stubModel{class: 7, proba: []float64{1}}, riskVocab(t))
	require.NoError(t, err)

	_, _, err = classifier.Classify(30, 0, 120, 70, 36.8, 0)
	assert.Error(t, err)
}

func TestNewClassifierRejectsUnknownRiskLabels(t *testing.T) {
	vocab, err := NewVocabulary("risk", []string{"Critical", "Low"})
	require.NoError(t, err)

	_, err = NewClassifier(&stubModel{}, vocab)
	assert.Error(t, err)
}

func TestValidateFeatureOrder(t *testing.T) {
	assert.NoError(t, ValidateFeatureOrder([]string{"Age", "Gender", "BloodPressure", "HeartRate", "Temperature", "Condition"}))
	assert.Error(t, ValidateFeatureOrder([]string{"Gender", "Age", "BloodPressure", "HeartRate", "Temperature", "Condition"}))
	assert.Error(t, ValidateFeatureOrder([]string{"Age"}))
}
