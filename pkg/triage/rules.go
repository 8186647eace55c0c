package triage

import "github.com/synaptica-ai/medtriage/pkg/common/models"

// Rule thresholds are exclusive. Any single vital above a tier's limit
// is enough to reach that tier.
const (
	HighBloodPressure   = 180
	HighHeartRate       = 130
	HighTemperature     = 39.0
	MediumBloodPressure = 140
	MediumHeartRate     = 100
	MediumTemperature   = 38.0
)

// RuleRisk classifies vitals with fixed thresholds, highest tier first.
// temp is in Celsius.
func RuleRisk(bp, hr int, temp float64) models.RiskLevel {
	switch {
	case bp > HighBloodPressure || hr > HighHeartRate || temp > HighTemperature:
		return models.RiskHigh
	case bp > MediumBloodPressure || hr > MediumHeartRate || temp > MediumTemperature:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
