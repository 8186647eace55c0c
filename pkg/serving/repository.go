package serving

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisLog is one audit row per completed analysis.
type AnalysisLog struct {
	ID           uuid.UUID         `gorm:"primaryKey;column:id"`
	PatientID    string            `gorm:"column:patient_id;index"`
	ModelName    string            `gorm:"column:model_name"`
	ModelVersion string            `gorm:"column:model_version"`
	Inputs       datatypes.JSONMap `gorm:"column:inputs"`
	Outcome      datatypes.JSONMap `gorm:"column:outcome"`
	Risk         string            `gorm:"column:risk"`
	Confidence   float64           `gorm:"column:confidence"`
	AnalyzedAt   time.Time         `gorm:"column:analyzed_at"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
}

// TableName overrides gorm naming.
func (AnalysisLog) TableName() string {
	return "analysis_logs"
}

// Repository handles analysis log queries.
type Repository struct {
	db           *gorm.DB
	modelName    string
	modelVersion string
}

func NewRepository(db *gorm.DB, modelName, modelVersion string) *Repository {
	return &Repository{db: db, modelName: modelName, modelVersion: modelVersion}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&AnalysisLog{})
}

func (r *Repository) RecordAnalysis(ctx context.Context, result models.AnalysisResult, vitals models.Vitals) error {
	log := newAnalysisLog(result, vitals, r.modelName, r.modelVersion)
	return r.db.WithContext(ctx).Create(&log).Error
}

func newAnalysisLog(result models.AnalysisResult, vitals models.Vitals, modelName, modelVersion string) AnalysisLog {
	a := result.Assessment
	return AnalysisLog{
		ID:           uuid.New(),
		PatientID:    result.PatientID,
		ModelName:    modelName,
		ModelVersion: modelVersion,
		Inputs: datatypes.JSONMap{
			"age":       vitals.Age,
			"gender":    vitals.Gender,
			"condition": vitals.Condition,
			"bp":        vitals.BloodPressure,
			"hr":        vitals.HeartRate,
			"temp":      vitals.Temperature,
		},
		Outcome: datatypes.JSONMap{
			"rule_risk":      string(a.RuleRisk),
			"model_risk":     string(a.ModelRisk),
			"risk":           string(a.FinalRisk),
			"department":     a.Department,
			"gender_code":    a.GenderCode,
			"condition_code": a.ConditionCode,
		},
		Risk:       string(a.FinalRisk),
		Confidence: a.Confidence,
		AnalyzedAt: result.AnalyzedAt,
		CreatedAt:  time.Now().UTC(),
	}
}

// Recent returns the most recent analysis logs up to limit, optionally
// for one patient.
func (r *Repository) Recent(ctx context.Context, patientID string, limit int) ([]AnalysisLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []AnalysisLog
	q := r.db.WithContext(ctx)
	if patientID != "" {
		q = q.Where("patient_id = ?", patientID)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
