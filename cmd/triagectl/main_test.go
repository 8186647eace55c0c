package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/medtriage/pkg/common/config"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"github.com/synaptica-ai/medtriage/pkg/triage"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{ModelArtifactPath: filepath.Join("..", "..", "models", "triage_model.json")}
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := runCLI(t, "classify", "--age", "26", "--gender", "Male", "--bp", "190", "--hr", "80", "--temp", "98.6")
	require.NoError(t, err)

	var assessment models.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &assessment))
	assert.Equal(t, models.RiskHigh, assessment.RuleRisk)
	assert.Equal(t, models.RiskHigh, assessment.FinalRisk)
	assert.Equal(t, triage.DepartmentEmergency, assessment.Department)
}

func TestClassifyUnknownGender(t *testing.T) {
	_, err := runCLI(t, "classify", "--age", "40", "--gender", "Other", "--bp", "120", "--hr", "70", "--temp", "37")
	assert.ErrorIs(t, err, triage.ErrUnknownCategory)
}

func TestClassifyRequiresVitals(t *testing.T) {
	_, err := runCLI(t, "classify", "--gender", "Male")
	assert.Error(t, err)
}

func TestModelInspect(t *testing.T) {
	out, err := runCLI(t, "model", "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "features:  Age, Gender, BloodPressure, HeartRate, Temperature, Condition")
	assert.Contains(t, out, "risk:      High, Low, Medium")
}
