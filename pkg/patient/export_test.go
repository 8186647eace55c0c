package patient

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

func TestWriteCSV(t *testing.T) {
	analyzedAt := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	patients := []models.Patient{
		{
			PatientID:      "P20000101-001",
			Name:           "Doe, Jane",
			DOB:            "2000-01-01",
			Age:            26,
			SymptomSummary: "Fever, Cough",
			BloodPressure:  190,
			HeartRate:      80,
			Temperature:    37,
			Analysis:       &models.DerivedFields{Risk: models.RiskHigh, Department: "Emergency", Confidence: 87.5},
			AnalyzedAt:     &analyzedAt,
		},
		{PatientID: "P20000101-002", DOB: "2000-01-01", SymptomSummary: "—"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, patients))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Doe, Jane", rows[1][1])
	assert.Equal(t, "High", rows[1][11])
	assert.Equal(t, "87.50", rows[1][13])
	assert.Equal(t, "", rows[2][11])
	assert.Equal(t, "—", rows[2][6])
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, models.Patient{PatientID: "P20000101-001", Name: "Jane", SymptomSummary: "—"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
