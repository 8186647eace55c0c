package triage

import (
	"errors"
	"fmt"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"github.com/synaptica-ai/medtriage/pkg/serving/predictor"
)

// StatisticalClassifier is the learned half of the hybrid engine.
type StatisticalClassifier interface {
	Classify(age, genderCode, bp, hr int, temp float64, conditionCode int) (models.RiskLevel, float64, error)
}

// Engine combines the rule engine and the statistical classifier. It
// holds only immutable state and is safe for concurrent use.
type Engine struct {
	gender     Vocabulary
	condition  Vocabulary
	classifier StatisticalClassifier
	router     *Router
}

func NewEngine(gender, condition Vocabulary, classifier StatisticalClassifier, router *Router) (*Engine, error) {
	if classifier == nil || router == nil {
		return nil, errors.New("engine needs a classifier and a router")
	}
	return &Engine{gender: gender, condition: condition, classifier: classifier, router: router}, nil
}

// NewEngineFromModel builds the encoders and classifier from a loaded
// artifact.
func NewEngineFromModel(model *predictor.Model, router *Router) (*Engine, error) {
	if err := ValidateFeatureOrder(model.FeatureNames()); err != nil {
		return nil, fmt.Errorf("%w: %v", predictor.ErrModelUnavailable, err)
	}
	enc := model.Encoders()
	gender, err := NewVocabulary("gender", enc.Gender)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", predictor.ErrModelUnavailable, err)
	}
	condition, err := NewVocabulary("condition", enc.Condition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", predictor.ErrModelUnavailable, err)
	}
	risk, err := NewVocabulary("risk", enc.Risk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", predictor.ErrModelUnavailable, err)
	}
	classifier, err := NewClassifier(model, risk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", predictor.ErrModelUnavailable, err)
	}
	return NewEngine(gender, condition, classifier, router)
}

// Assess runs one hybrid classification. Temperature must already be in
// Celsius. An unknown gender fails; an unknown condition falls back to
// the first vocabulary entry.
func (e *Engine) Assess(v models.Vitals) (models.Assessment, error) {
	genderCode, err := e.gender.Encode(v.Gender)
	if err != nil {
		return models.Assessment{}, err
	}
	conditionCode := e.condition.EncodeOrFirst(v.Condition)

	ruleRisk := RuleRisk(v.BloodPressure, v.HeartRate, v.Temperature)

	mlRisk, confidence, err := e.classifier.Classify(v.Age, genderCode, v.BloodPressure, v.HeartRate, v.Temperature, conditionCode)
	if err != nil {
		return models.Assessment{}, fmt.Errorf("statistical classifier: %w", err)
	}

	return models.Assessment{
		RuleRisk:      ruleRisk,
		ModelRisk:     mlRisk,
		FinalRisk:     Merge(ruleRisk, mlRisk),
		Department:    e.router.Route(v.BloodPressure, v.HeartRate),
		Confidence:    confidence,
		GenderCode:    genderCode,
		ConditionCode: conditionCode,
	}, nil
}

func (e *Engine) GenderLabels() []string    { return e.gender.Labels() }
func (e *Engine) ConditionLabels() []string { return e.condition.Labels() }
