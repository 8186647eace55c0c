package patient

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

var (
	errMissingField = errors.New("missing required field")
	errInvalidDOB   = errors.New("invalid date of birth")
	errInvalidVital = errors.New("invalid vital sign")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func validationErrorf(format string, args ...interface{}) error {
	return ValidationError{reason: fmt.Errorf(format, args...)}
}

// registration is a validated, normalized RegisterRequest.
type registration struct {
	Name           string
	DOB            time.Time
	Gender         string
	Condition      string
	Symptoms       []string
	SymptomSummary string
	BloodPressure  int
	HeartRate      int
	Temperature    float64
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks required fields and converts temperature to Celsius.
// A date of birth after now is rejected.
func (v *Validator) Validate(req models.RegisterRequest, now time.Time) (registration, error) {
	fields := map[string]string{
		"name":      req.Name,
		"dob":       req.DOB,
		"gender":    req.Gender,
		"condition": req.Condition,
	}
	for _, key := range []string{"name", "dob", "gender", "condition"} {
		if strings.TrimSpace(fields[key]) == "" {
			return registration{}, validationErrorf("%s required: %w", key, errMissingField)
		}
	}

	dob, err := ParseDOB(req.DOB)
	if err != nil {
		return registration{}, validationErrorf("dob %q must be YYYY-MM-DD: %w", req.DOB, errInvalidDOB)
	}
	if dob.After(now) {
		return registration{}, validationErrorf("dob %s is in the future: %w", req.DOB, errInvalidDOB)
	}

	if req.BloodPressure == nil {
		return registration{}, validationErrorf("bp required: %w", errMissingField)
	}
	if req.HeartRate == nil {
		return registration{}, validationErrorf("hr required: %w", errMissingField)
	}
	if req.Temperature == nil {
		return registration{}, validationErrorf("temp required: %w", errMissingField)
	}
	if *req.BloodPressure <= 0 {
		return registration{}, validationErrorf("bp %d must be positive: %w", *req.BloodPressure, errInvalidVital)
	}
	if *req.HeartRate <= 0 {
		return registration{}, validationErrorf("hr %d must be positive: %w", *req.HeartRate, errInvalidVital)
	}
	temp := *req.Temperature
	if math.IsNaN(temp) || math.IsInf(temp, 0) || temp <= 0 {
		return registration{}, validationErrorf("temp %v must be a positive number: %w", temp, errInvalidVital)
	}

	symptoms, summary := FlattenSymptoms(req.Symptoms, req.CustomSymptom)

	return registration{
		Name:           strings.TrimSpace(req.Name),
		DOB:            dob,
		Gender:         strings.TrimSpace(req.Gender),
		Condition:      strings.TrimSpace(req.Condition),
		Symptoms:       symptoms,
		SymptomSummary: summary,
		BloodPressure:  *req.BloodPressure,
		HeartRate:      *req.HeartRate,
		Temperature:    NormalizeTemperature(temp),
	}, nil
}
