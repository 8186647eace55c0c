package models

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is an ordinal triage severity.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Severity orders risk levels; unknown values rank below Low.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

func (r RiskLevel) Valid() bool {
	return r.Severity() > 0
}

func ParseRiskLevel(value string) (RiskLevel, error) {
	level := RiskLevel(value)
	if !level.Valid() {
		return "", fmt.Errorf("unknown risk level %q", value)
	}
	return level, nil
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.registered, patient.analyzed, analysis.requested
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventPatientRegistered = "patient.registered"
	EventPatientAnalyzed   = "patient.analyzed"
	EventAnalysisRequested = "analysis.requested"
)

// DerivedFields are set together by analysis and never individually.
type DerivedFields struct {
	Risk       RiskLevel `json:"risk"`
	Department string    `json:"department"`
	Confidence float64   `json:"confidence"`
}

// Patient is the read view of a stored record. Age is computed when the
// view is built, never stored.
type Patient struct {
	PatientID      string         `json:"patient_id"`
	Name           string         `json:"name"`
	DOB            string         `json:"dob"`
	Age            int            `json:"age"`
	Gender         string         `json:"gender"`
	Condition      string         `json:"condition"`
	Symptoms       []string       `json:"symptoms"`
	SymptomSummary string         `json:"symptom_summary"`
	BloodPressure  int            `json:"bp"`
	HeartRate      int            `json:"hr"`
	Temperature    float64        `json:"temp"`
	DocumentKey    string         `json:"ehr_file,omitempty"`
	Analysis       *DerivedFields `json:"analysis"`
	AnalyzedAt     *time.Time     `json:"analyzed_at,omitempty"`
	CreatedAt      time.Time      `json:"timestamp"`
}

func (p Patient) Analyzed() bool {
	return p.Analysis != nil
}

// DocumentUpload is an optional clinical document attached at registration.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// RegisterRequest carries raw registration input. Vitals are pointers so
// that a missing value can be told apart from zero.
type RegisterRequest struct {
	Name          string          `json:"name"`
	DOB           string          `json:"dob"`
	Gender        string          `json:"gender"`
	Condition     string          `json:"condition"`
	Symptoms      []string        `json:"symptoms,omitempty"`
	CustomSymptom string          `json:"custom_symptom,omitempty"`
	BloodPressure *int            `json:"bp"`
	HeartRate     *int            `json:"hr"`
	Temperature   *float64        `json:"temp"`
	Document      *DocumentUpload `json:"-"`
}

// Vitals are the normalized inputs of one classification.
type Vitals struct {
	Age           int
	Gender        string
	Condition     string
	BloodPressure int
	HeartRate     int
	Temperature   float64
}

// Assessment is the outcome of one hybrid classification.
type Assessment struct {
	RuleRisk      RiskLevel `json:"rule_risk"`
	ModelRisk     RiskLevel `json:"model_risk"`
	FinalRisk     RiskLevel `json:"risk"`
	Department    string    `json:"department"`
	Confidence    float64   `json:"confidence"`
	GenderCode    int       `json:"gender_code"`
	ConditionCode int       `json:"condition_code"`
}

type AnalysisResult struct {
	PatientID  string     `json:"patient_id"`
	Age        int        `json:"age"`
	Assessment Assessment `json:"assessment"`
	AnalyzedAt time.Time  `json:"analyzed_at"`
}

type DashboardSummary struct {
	Total       int            `json:"total"`
	High        int            `json:"high"`
	Medium      int            `json:"medium"`
	Low         int            `json:"low"`
	Departments map[string]int `json:"department_counts"`
}

type Clinician struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
