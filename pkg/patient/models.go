package patient

import (
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"gorm.io/datatypes"
)

// Record is the persisted patient row. Risk, Department, Confidence and
// AnalyzedAt are nil until the first analysis and are written together.
type Record struct {
	PatientID      string                      `gorm:"primaryKey;column:patient_id"`
	Name           string                      `gorm:"column:name"`
	DOB            string                      `gorm:"column:dob;index"`
	Gender         string                      `gorm:"column:gender"`
	Condition      string                      `gorm:"column:condition"`
	Symptoms       datatypes.JSONSlice[string] `gorm:"column:symptoms"`
	SymptomSummary string                      `gorm:"column:symptom_summary"`
	BloodPressure  int                         `gorm:"column:bp"`
	HeartRate      int                         `gorm:"column:hr"`
	Temperature    float64                     `gorm:"column:temp"`
	DocumentKey    string                      `gorm:"column:ehr_file"`
	Risk           *string                     `gorm:"column:risk;index"`
	Department     *string                     `gorm:"column:department"`
	Confidence     *float64                    `gorm:"column:confidence"`
	AnalyzedAt     *time.Time                  `gorm:"column:analyzed_at"`
	CreatedAt      time.Time                   `gorm:"column:created_at"`
}

func (Record) TableName() string {
	return "patients"
}

// View builds the read model with age computed at now.
func (r *Record) View(now time.Time) models.Patient {
	p := models.Patient{
		PatientID:      r.PatientID,
		Name:           r.Name,
		DOB:            r.DOB,
		Gender:         r.Gender,
		Condition:      r.Condition,
		Symptoms:       append([]string(nil), r.Symptoms...),
		SymptomSummary: r.SymptomSummary,
		BloodPressure:  r.BloodPressure,
		HeartRate:      r.HeartRate,
		Temperature:    r.Temperature,
		DocumentKey:    r.DocumentKey,
		CreatedAt:      r.CreatedAt,
	}
	if dob, err := ParseDOB(r.DOB); err == nil {
		p.Age = AgeOn(dob, now)
	}
	if r.Risk != nil && r.Department != nil && r.Confidence != nil {
		p.Analysis = &models.DerivedFields{
			Risk:       models.RiskLevel(*r.Risk),
			Department: *r.Department,
			Confidence: *r.Confidence,
		}
		if r.AnalyzedAt != nil {
			analyzed := *r.AnalyzedAt
			p.AnalyzedAt = &analyzed
		}
	}
	return p
}

func (r *Record) clone() *Record {
	c := *r
	c.Symptoms = append(datatypes.JSONSlice[string](nil), r.Symptoms...)
	if r.Risk != nil {
		v := *r.Risk
		c.Risk = &v
	}
	if r.Department != nil {
		v := *r.Department
		c.Department = &v
	}
	if r.Confidence != nil {
		v := *r.Confidence
		c.Confidence = &v
	}
	if r.AnalyzedAt != nil {
		v := *r.AnalyzedAt
		c.AnalyzedAt = &v
	}
	return &c
}
