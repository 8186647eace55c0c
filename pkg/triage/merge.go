package triage

import "github.com/synaptica-ai/medtriage/pkg/common/models"

// Merge returns the more severe of the two levels.
func Merge(rule, ml models.RiskLevel) models.RiskLevel {
	if ml.Severity() > rule.Severity() {
		return ml
	}
	return rule
}
