package patient

import (
	"strings"
	"time"
)

const (
	dobLayout = "2006-01-02"

	// Inputs above this are taken to be Fahrenheit.
	fahrenheitCutoff = 45.0

	emptySymptoms = "—"
)

// NormalizeTemperature returns the temperature in Celsius.
func NormalizeTemperature(t float64) float64 {
	if t > fahrenheitCutoff {
		return (t - 32) * 5 / 9
	}
	return t
}

func ParseDOB(value string) (time.Time, error) {
	return time.Parse(dobLayout, strings.TrimSpace(value))
}

// AgeOn returns completed years between dob and now.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// FlattenSymptoms appends the custom entry to the checklist and returns
// both the list and its display string.
func FlattenSymptoms(checklist []string, custom string) ([]string, string) {
	symptoms := make([]string, 0, len(checklist)+1)
	for _, s := range checklist {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			symptoms = append(symptoms, trimmed)
		}
	}
	if trimmed := strings.TrimSpace(custom); trimmed != "" {
		symptoms = append(symptoms, trimmed)
	}
	if len(symptoms) == 0 {
		return symptoms, emptySymptoms
	}
	return symptoms, strings.Join(symptoms, ", ")
}

func dobDigits(dob time.Time) string {
	return dob.Format("20060102")
}
