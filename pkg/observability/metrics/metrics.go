package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

var (
	patientsRegistered   atomic.Int64
	registrationFailures atomic.Int64
	allocationConflicts  atomic.Int64
	analysesCompleted    atomic.Int64
	analysisFailures     atomic.Int64
	riskHigh             atomic.Int64
	riskMedium           atomic.Int64
	riskLow              atomic.Int64
	eventPublishFailures atomic.Int64
)

func ObserveRegistration(err error) {
	if err != nil {
		registrationFailures.Add(1)
		return
	}
	patientsRegistered.Add(1)
}

func ObserveAllocationConflict() {
	allocationConflicts.Add(1)
}

// ObserveAnalysis counts one analysis outcome by final risk.
func ObserveAnalysis(risk models.RiskLevel, err error) {
	if err != nil {
		analysisFailures.Add(1)
		return
	}
	analysesCompleted.Add(1)
	switch risk {
	case models.RiskHigh:
		riskHigh.Add(1)
	case models.RiskMedium:
		riskMedium.Add(1)
	case models.RiskLow:
		riskLow.Add(1)
	}
}

func ObserveEventPublishFailure() {
	eventPublishFailures.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	PatientsRegistered   int64
	RegistrationFailures int64
	AllocationConflicts  int64
	AnalysesCompleted    int64
	AnalysisFailures     int64
	RiskHigh             int64
	RiskMedium           int64
	RiskLow              int64
	EventPublishFailures int64
}

func Read() Snapshot {
	return Snapshot{
		PatientsRegistered:   patientsRegistered.Load(),
		RegistrationFailures: registrationFailures.Load(),
		AllocationConflicts:  allocationConflicts.Load(),
		AnalysesCompleted:    analysesCompleted.Load(),
		AnalysisFailures:     analysisFailures.Load(),
		RiskHigh:             riskHigh.Load(),
		RiskMedium:           riskMedium.Load(),
		RiskLow:              riskLow.Load(),
		EventPublishFailures: eventPublishFailures.Load(),
	}
}

func WritePrometheus(w http.ResponseWriter) {
	s := Read()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP medtriage_patients_registered_total Number of patients registered.\n")
	fmt.Fprintf(w, "# TYPE medtriage_patients_registered_total counter\n")
	fmt.Fprintf(w, "medtriage_patients_registered_total %d\n", s.PatientsRegistered)

	fmt.Fprintf(w, "# HELP medtriage_registration_failures_total Number of rejected or failed registrations.\n")
	fmt.Fprintf(w, "# TYPE medtriage_registration_failures_total counter\n")
	fmt.Fprintf(w, "medtriage_registration_failures_total %d\n", s.RegistrationFailures)

	fmt.Fprintf(w, "# HELP medtriage_allocation_conflicts_total Number of identifier collisions caught by the store.\n")
	fmt.Fprintf(w, "# TYPE medtriage_allocation_conflicts_total counter\n")
	fmt.Fprintf(w, "medtriage_allocation_conflicts_total %d\n", s.AllocationConflicts)

	fmt.Fprintf(w, "# HELP medtriage_analyses_total Number of completed analyses.\n")
	fmt.Fprintf(w, "# TYPE medtriage_analyses_total counter\n")
	fmt.Fprintf(w, "medtriage_analyses_total %d\n", s.AnalysesCompleted)

	fmt.Fprintf(w, "# HELP medtriage_analysis_failures_total Number of analyses that returned an error.\n")
	fmt.Fprintf(w, "# TYPE medtriage_analysis_failures_total counter\n")
	fmt.Fprintf(w, "medtriage_analysis_failures_total %d\n", s.AnalysisFailures)

	fmt.Fprintf(w, "# HELP medtriage_risk_total Completed analyses by final risk.\n")
	fmt.Fprintf(w, "# TYPE medtriage_risk_total counter\n")
	fmt.Fprintf(w, "medtriage_risk_total{risk=\"High\"} %d\n", s.RiskHigh)
	fmt.Fprintf(w, "medtriage_risk_total{risk=\"Medium\"} %d\n", s.RiskMedium)
	fmt.Fprintf(w, "medtriage_risk_total{risk=\"Low\"} %d\n", s.RiskLow)

	fmt.Fprintf(w, "# HELP medtriage_event_publish_failures_total Number of domain events that could not be published.\n")
	fmt.Fprintf(w, "# TYPE medtriage_event_publish_failures_total counter\n")
	fmt.Fprintf(w, "medtriage_event_publish_failures_total %d\n", s.EventPublishFailures)
}
