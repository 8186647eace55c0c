package predictor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validArtifact = `{
  "model": {
    "type": "triage-risk",
    "algorithm": "multinomial_logistic",
    "version": "test",
    "feature_names": ["Age", "Gender"],
    "classes": [
      {"bias": 0, "coefficients": [1, 0]},
      {"bias": 0, "coefficients": [0, 1]}
    ]
  },
  "encoders": {
    "gender": ["Female", "Male"],
    "condition": ["None"],
    "risk": ["High", "Low"]
  }
}`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidArtifact(t *testing.T) {
	model, err := Load(writeArtifact(t, validArtifact))
	require.NoError(t, err)

	assert.Equal(t, "triage-risk", model.Name())
	assert.Equal(t, "test", model.Version())
	assert.Equal(t, []string{"Age", "Gender"}, model.FeatureNames())
	assert.Equal(t, []string{"High", "Low"}, model.Encoders().Risk)

	idx, err := model.Predict([]float64{5, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestEncodersAreCopies(t *testing.T) {
	model, err := Load(writeArtifact(t, validArtifact))
	require.NoError(t, err)

	enc := model.Encoders()
	enc.Risk[0] = "mutated"
	assert.Equal(t, "High", model.Encoders().Risk[0])
}

func TestLoadFailuresAreModelUnavailable(t *testing.T) {
	cases := map[string]string{
		"bad json":           `{`,
		"wrong algorithm":    `{"model":{"algorithm":"xgboost","feature_names":["a"],"classes":[{"coefficients":[1]},{"coefficients":[1]}]},"encoders":{"gender":["x"],"condition":["y"],"risk":["a","b"]}}`,
		"risk label count":   `{"model":{"algorithm":"multinomial_logistic","feature_names":["a"],"classes":[{"coefficients":[1]},{"coefficients":[1]}]},"encoders":{"gender":["x"],"condition":["y"],"risk":["a"]}}`,
		"feature name count": `{"model":{"algorithm":"multinomial_logistic","feature_names":["a","b"],"classes":[{"coefficients":[1]},{"coefficients":[1]}]},"encoders":{"gender":["x"],"condition":["y"],"risk":["a","b"]}}`,
		"missing encoders":   `{"model":{"algorithm":"multinomial_logistic","feature_names":["a"],"classes":[{"coefficients":[1]},{"coefficients":[1]}]},"encoders":{"risk":["a","b"]}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeArtifact(t, content))
			assert.ErrorIs(t, err, ErrModelUnavailable)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestBundledArtifactLoads(t *testing.T) {
	model, err := Load(filepath.Join("..", "..", "..", "models", "triage_model.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Gender", "BloodPressure", "HeartRate", "Temperature", "Condition"}, model.FeatureNames())
	assert.Equal(t, []string{"High", "Low", "Medium"}, model.Encoders().Risk)
}
