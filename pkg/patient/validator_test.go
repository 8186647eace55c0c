package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func validRequest() models.RegisterRequest {
	return models.RegisterRequest{
		Name:          "Ada Lovelace",
		DOB:           "1990-05-05",
		Gender:        "Female",
		Condition:     "Asthma",
		Symptoms:      []string{"Cough"},
		BloodPressure: intp(128),
		HeartRate:     intp(72),
		Temperature:   floatp(101.5),
	}
}

var validatorNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func TestValidateNormalizes(t *testing.T) {
	reg, err := NewValidator().Validate(validRequest(), validatorNow)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", reg.Name)
	assert.Equal(t, "1990-05-05", reg.DOB.Format(dobLayout))
	assert.InDelta(t, 38.6, reg.Temperature, 0.05)
	assert.Equal(t, "Cough", reg.SymptomSummary)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*models.RegisterRequest){
		"missing name":    func(r *models.RegisterRequest) { r.Name = "  " },
		"missing gender":  func(r *models.RegisterRequest) { r.Gender = "" },
		"bad dob":         func(r *models.RegisterRequest) { r.DOB = "05/05/1990" },
		"future dob":      func(r *models.RegisterRequest) { r.DOB = "2027-01-01" },
		"missing bp":      func(r *models.RegisterRequest) { r.BloodPressure = nil },
		"missing temp":    func(r *models.RegisterRequest) { r.Temperature = nil },
		"zero heart rate": func(r *models.RegisterRequest) { r.HeartRate = intp(0) },
		"negative temp":   func(r *models.RegisterRequest) { r.Temperature = floatp(-3) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := NewValidator().Validate(req, validatorNow)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}
