package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/logger"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"github.com/synaptica-ai/medtriage/pkg/observability/metrics"
	"github.com/synaptica-ai/medtriage/pkg/triage"
	"gorm.io/datatypes"
)

const (
	eventSource = "triage-service"

	UnassignedDepartment = "Unassigned"
)

// Assessor runs the hybrid classification over normalized vitals.
type Assessor interface {
	Assess(v models.Vitals) (models.Assessment, error)
}

// DocumentStore keeps uploaded clinical documents.
type DocumentStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, data map[string]interface{}) error
}

// AnalysisRecorder keeps an audit entry per completed analysis.
type AnalysisRecorder interface {
	RecordAnalysis(ctx context.Context, result models.AnalysisResult, vitals models.Vitals) error
}

// Dependencies wires a Service. Store, Allocator and Engine are required;
// the rest may be nil.
type Dependencies struct {
	Store         Store
	Allocator     *Allocator
	Engine        Assessor
	Documents     DocumentStore
	Events        EventPublisher
	AnalysisQueue EventPublisher
	Recorder      AnalysisRecorder
}

type Service struct {
	validator *Validator
	store     Store
	allocator *Allocator
	engine    Assessor
	documents DocumentStore
	events    EventPublisher
	queue     EventPublisher
	recorder  AnalysisRecorder
	now       func() time.Time
}

func NewService(deps Dependencies) (*Service, error) {
	if deps.Store == nil || deps.Allocator == nil || deps.Engine == nil {
		return nil, errors.New("patient service requires a store, an allocator and an engine")
	}
	return &Service{
		validator: NewValidator(),
		store:     deps.Store,
		allocator: deps.Allocator,
		engine:    deps.Engine,
		documents: deps.Documents,
		events:    deps.Events,
		queue:     deps.AnalysisQueue,
		recorder:  deps.Recorder,
		now:       time.Now,
	}, nil
}

// Register validates and stores a new patient with no derived fields.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Patient, error) {
	p, err := s.register(ctx, req)
	metrics.ObserveRegistration(err)
	return p, err
}

func (s *Service) register(ctx context.Context, req models.RegisterRequest) (*models.Patient, error) {
	reg, err := s.validator.Validate(req, s.now())
	if err != nil {
		return nil, err
	}

	id, err := s.allocator.Allocate(ctx, reg.DOB)
	if err != nil {
		return nil, err
	}

	record := &Record{
		PatientID:      id,
		Name:           reg.Name,
		DOB:            reg.DOB.Format(dobLayout),
		Gender:         reg.Gender,
		Condition:      reg.Condition,
		Symptoms:       datatypes.JSONSlice[string](reg.Symptoms),
		SymptomSummary: reg.SymptomSummary,
		BloodPressure:  reg.BloodPressure,
		HeartRate:      reg.HeartRate,
		Temperature:    reg.Temperature,
		CreatedAt:      s.now().UTC(),
	}

	if req.Document != nil && s.documents != nil {
		key := documentKey(id, req.Document.Filename)
		if err := s.documents.Put(ctx, key, req.Document.ContentType, req.Document.Body); err != nil {
			s.releaseIdentifier(ctx, reg.DOB, id)
			return nil, fmt.Errorf("storing document for %s: %w", id, err)
		}
		record.DocumentKey = key
	}

	if err := s.store.Insert(ctx, record); err != nil {
		if errors.Is(err, ErrAllocationConflict) {
			metrics.ObserveAllocationConflict()
		}
		s.releaseIdentifier(ctx, reg.DOB, id)
		return nil, fmt.Errorf("persisting patient %s: %w", id, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"patient_id": id,
		"document":   record.DocumentKey != "",
	}).Info("patient registered")

	s.publish(ctx, s.events, models.EventPatientRegistered, id, map[string]interface{}{
		"patient_id": id,
		"dob":        record.DOB,
	})

	view := record.View(s.now())
	return &view, nil
}

// Analyze classifies a stored patient and writes the derived fields back.
// Running it again on unchanged vitals stores the same derived fields.
func (s *Service) Analyze(ctx context.Context, id string) (*models.AnalysisResult, error) {
	result, vitals, err := s.analyze(ctx, id)
	var risk models.RiskLevel
	if result != nil {
		risk = result.Assessment.FinalRisk
	}
	metrics.ObserveAnalysis(risk, err)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		if err := s.recorder.RecordAnalysis(ctx, *result, vitals); err != nil {
			logger.Log.WithError(err).WithField("patient_id", id).Warn("failed to record analysis log")
		}
	}

	s.publish(ctx, s.events, models.EventPatientAnalyzed, id, map[string]interface{}{
		"patient_id": id,
		"risk":       string(result.Assessment.FinalRisk),
		"department": result.Assessment.Department,
		"confidence": result.Assessment.Confidence,
	})
	return result, nil
}

func (s *Service) analyze(ctx context.Context, id string) (*models.AnalysisResult, models.Vitals, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, models.Vitals{}, err
	}

	dob, err := ParseDOB(rec.DOB)
	if err != nil {
		return nil, models.Vitals{}, fmt.Errorf("stored dob %q for %s: %w", rec.DOB, id, err)
	}
	now := s.now()
	vitals := models.Vitals{
		Age:           AgeOn(dob, now),
		Gender:        rec.Gender,
		Condition:     rec.Condition,
		BloodPressure: rec.BloodPressure,
		HeartRate:     rec.HeartRate,
		Temperature:   rec.Temperature,
	}

	assessment, err := s.engine.Assess(vitals)
	if err != nil {
		return nil, vitals, fmt.Errorf("analyzing %s: %w", id, err)
	}

	analyzedAt := now.UTC()
	derived := models.DerivedFields{
		Risk:       assessment.FinalRisk,
		Department: assessment.Department,
		Confidence: assessment.Confidence,
	}
	if err := s.store.UpdateDerived(ctx, id, derived, analyzedAt); err != nil {
		return nil, vitals, fmt.Errorf("saving analysis for %s: %w", id, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"patient_id": id,
		"rule_risk":  assessment.RuleRisk,
		"model_risk": assessment.ModelRisk,
		"risk":       assessment.FinalRisk,
		"department": assessment.Department,
		"confidence": assessment.Confidence,
	}).Info("patient analyzed")

	return &models.AnalysisResult{
		PatientID:  id,
		Age:        vitals.Age,
		Assessment: assessment,
		AnalyzedAt: analyzedAt,
	}, vitals, nil
}

// RequestAnalysis queues an analysis for the worker. Without a queue the
// analysis runs inline.
func (s *Service) RequestAnalysis(ctx context.Context, id string) error {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return err
	}
	if s.queue == nil {
		_, err := s.Analyze(ctx, id)
		return err
	}
	if err := s.queue.Publish(ctx, models.EventAnalysisRequested, id, map[string]interface{}{"patient_id": id}); err != nil {
		metrics.ObserveEventPublishFailure()
		return fmt.Errorf("queueing analysis for %s: %w", id, err)
	}
	return nil
}

// releaseIdentifier returns an unpersisted identifier's bucket to the
// store's view so the sequence has no gaps.
func (s *Service) releaseIdentifier(ctx context.Context, dob time.Time, id string) {
	if err := s.allocator.Release(ctx, dob); err != nil {
		logger.Log.WithError(err).WithField("patient_id", id).Warn("failed to reset identifier sequence")
	}
}

// HandleEvent runs analysis for an analysis.requested event.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventAnalysisRequested {
		return nil
	}
	id, _ := event.Data["patient_id"].(string)
	if id == "" {
		logger.Log.WithField("event_id", event.ID).Warn("analysis request without patient_id")
		return nil
	}
	_, err := s.Analyze(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Log.WithField("patient_id", id).Warn("analysis requested for unknown patient")
		return nil
	case errors.Is(err, triage.ErrUnknownCategory):
		// Retrying cannot succeed until the record changes.
		logger.Log.WithError(err).WithField("patient_id", id).Warn("analysis request dropped")
		return nil
	}
	return err
}

func (s *Service) Get(ctx context.Context, id string) (*models.Patient, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := rec.View(s.now())
	return &view, nil
}

func (s *Service) List(ctx context.Context) ([]models.Patient, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	now := s.now()
	out := make([]models.Patient, 0, len(records))
	for i := range records {
		out = append(out, records[i].View(now))
	}
	return out, nil
}

// Summary counts patients by risk and department. Patients that were
// never analyzed count under Unassigned.
func (s *Service) Summary(ctx context.Context) (models.DashboardSummary, error) {
	patients, err := s.List(ctx)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	return Summarize(patients), nil
}

func Summarize(patients []models.Patient) models.DashboardSummary {
	summary := models.DashboardSummary{
		Total:       len(patients),
		Departments: make(map[string]int),
	}
	for _, p := range patients {
		if p.Analysis == nil {
			summary.Departments[UnassignedDepartment]++
			continue
		}
		switch p.Analysis.Risk {
		case models.RiskHigh:
			summary.High++
		case models.RiskMedium:
			summary.Medium++
		case models.RiskLow:
			summary.Low++
		}
		summary.Departments[p.Analysis.Department]++
	}
	return summary
}

func (s *Service) publish(ctx context.Context, pub EventPublisher, eventType, key string, data map[string]interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, eventType, key, data); err != nil {
		metrics.ObserveEventPublishFailure()
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"patient_id": key,
			"event_type": eventType,
		}).Warn("event not published")
	}
}

func documentKey(id, filename string) string {
	return id + "_" + filepath.Base(filename)
}
