package patient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
	"github.com/synaptica-ai/medtriage/pkg/serving/predictor"
	"github.com/synaptica-ai/medtriage/pkg/triage"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

// Register mounts the patient routes on router. Callers are expected to
// wrap router with authentication.
func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/patients", h.handleRegister).Methods(http.MethodPost)
	router.HandleFunc("/patients", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/patients/export.csv", h.handleExportCSV).Methods(http.MethodGet)
	router.HandleFunc("/patients/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/patients/{id}/analyze", h.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/patients/{id}/report.pdf", h.handleReport).Methods(http.MethodGet)
	router.HandleFunc("/dashboard", h.handleDashboard).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	req, cleanup, err := DecodeRegisterRequest(r, h.maxBody)
	defer cleanup()
	if err != nil {
		logger.Log.WithError(err).Warn("invalid registration payload")
		writeError(w, err)
		return
	}

	p, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if err := h.service.RequestAnalysis(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"patient_id": id, "status": "queued"})
		return
	}

	result, err := h.service.Analyze(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, *p); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+p.PatientID+`_report.pdf"`)
	w.Write(buf.Bytes())
}

func (h *HTTPHandler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if len(patients) == 0 {
		http.Error(w, "no patient data available", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, patients); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="patients.csv"`)
	w.Write(buf.Bytes())
}

func (h *HTTPHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, triage.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrAllocationConflict):
		return http.StatusConflict
	case errors.Is(err, predictor.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.WithError(err).Error("patient request failed")
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
