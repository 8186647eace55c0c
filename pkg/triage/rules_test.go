package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

func TestRuleRiskThresholdsAreExclusive(t *testing.T) {
	cases := []struct {
		name string
		bp   int
		hr   int
		temp float64
		want models.RiskLevel
	}{
		{"normal", 120, 80, 37.0, models.RiskLow},
		{"bp at medium limit", 140, 80, 37.0, models.RiskLow},
		{"bp above medium limit", 141, 80, 37.0, models.RiskMedium},
		{"bp at high limit", 180, 80, 37.0, models.RiskMedium},
		{"bp above high limit", 181, 80, 37.0, models.RiskHigh},
		{"hr at medium limit", 120, 100, 37.0, models.RiskLow},
		{"hr above medium limit", 120, 101, 37.0, models.RiskMedium},
		{"hr at high limit", 120, 130, 37.0, models.RiskMedium},
		{"hr above high limit", 120, 131, 37.0, models.RiskHigh},
		{"temp at medium limit", 120, 80, 38.0, models.RiskLow},
		{"temp above medium limit", 120, 80, 38.1, models.RiskMedium},
		{"temp at high limit", 120, 80, 39.0, models.RiskMedium},
		{"temp above high limit", 120, 80, 39.1, models.RiskHigh},
		{"single vital is enough", 90, 60, 39.5, models.RiskHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RuleRisk(tc.bp, tc.hr, tc.temp))
		})
	}
}

func TestRuleRiskIsMonotonic(t *testing.T) {
	bps := []int{90, 140, 141, 160, 180, 181, 220}
	hrs := []int{50, 100, 101, 120, 130, 131, 170}
	temps := []float64{36.0, 38.0, 38.01, 38.5, 39.0, 39.01, 41.0}

	for _, bp := range bps {
		for _, hr := range hrs {
			for _, temp := range temps {
				base := RuleRisk(bp, hr, temp).Severity()
				assert.GreaterOrEqual(t, RuleRisk(bp+1, hr, temp).Severity(), base, "bp %d hr %d temp %.2f", bp, hr, temp)
				assert.GreaterOrEqual(t, RuleRisk(bp, hr+1, temp).Severity(), base, "bp %d hr %d temp %.2f", bp, hr, temp)
				assert.GreaterOrEqual(t, RuleRisk(bp, hr, temp+0.05).Severity(), base, "bp %d hr %d temp %.2f", bp, hr, temp)
			}
		}
	}
}
