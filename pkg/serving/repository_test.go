package serving

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

func TestNewAnalysisLog(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	result := models.AnalysisResult{
		PatientID: "P20000101-001",
		Age:       26,
		Assessment: models.Assessment{
			RuleRisk:   models.RiskHigh,
			ModelRisk:  models.RiskLow,
			FinalRisk:  models.RiskHigh,
			Department: "Emergency",
			Confidence: 91.3,
			GenderCode: 1,
		},
		AnalyzedAt: at,
	}
	vitals := models.Vitals{Age: 26, Gender: "Male", Condition: "None", BloodPressure: 190, HeartRate: 80, Temperature: 37}

	log := newAnalysisLog(result, vitals, "triage-risk", "2024.1")

	assert.Equal(t, "analysis_logs", log.TableName())
	assert.Equal(t, "P20000101-001", log.PatientID)
	assert.Equal(t, "triage-risk", log.ModelName)
	assert.Equal(t, "2024.1", log.ModelVersion)
	assert.Equal(t, "High", log.Risk)
	assert.Equal(t, 91.3, log.Confidence)
	assert.Equal(t, at, log.AnalyzedAt)
	assert.Equal(t, 190, log.Inputs["bp"])
	assert.Equal(t, "Low", log.Outcome["model_risk"])
	assert.NotEqual(t, [16]byte{}, [16]byte(log.ID))
}
