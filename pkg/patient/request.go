package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

const documentField = "ehr_file"

// DecodeRegisterRequest reads a registration from a JSON body or a
// multipart/url-encoded form. A non-numeric vital is a ValidationError.
// The returned cleanup closes any uploaded file.
func DecodeRegisterRequest(r *http.Request, maxMemory int64) (models.RegisterRequest, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json", "":
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return models.RegisterRequest{}, noop, ValidationError{reason: fmt.Errorf("invalid request body: %w", err)}
		}
		return req, noop, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return models.RegisterRequest{}, noop, ValidationError{reason: fmt.Errorf("invalid form: %w", err)}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return models.RegisterRequest{}, noop, ValidationError{reason: fmt.Errorf("invalid form: %w", err)}
		}
	default:
		return models.RegisterRequest{}, noop, ValidationError{reason: fmt.Errorf("unsupported content type %q", mediaType)}
	}

	req := models.RegisterRequest{
		Name:          r.FormValue("name"),
		DOB:           r.FormValue("dob"),
		Gender:        r.FormValue("gender"),
		Condition:     r.FormValue("condition"),
		Symptoms:      r.Form["symptoms"],
		CustomSymptom: r.FormValue("custom_symptom"),
	}

	var err error
	if req.BloodPressure, err = formInt(r, "bp"); err != nil {
		return models.RegisterRequest{}, noop, err
	}
	if req.HeartRate, err = formInt(r, "hr"); err != nil {
		return models.RegisterRequest{}, noop, err
	}
	if req.Temperature, err = formFloat(r, "temp"); err != nil {
		return models.RegisterRequest{}, noop, err
	}

	if r.MultipartForm == nil {
		return req, noop, nil
	}
	file, header, err := r.FormFile(documentField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, noop, nil
	}
	if err != nil {
		return models.RegisterRequest{}, noop, ValidationError{reason: fmt.Errorf("reading %s: %w", documentField, err)}
	}
	if header.Filename == "" {
		file.Close()
		return req, noop, nil
	}
	req.Document = &models.DocumentUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return req, func() { file.Close() }, nil
}

func formInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, validationErrorf("%s %q is not an integer: %w", key, raw, errInvalidVital)
	}
	return &v, nil
}

func formFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, validationErrorf("%s %q is not a number: %w", key, raw, errInvalidVital)
	}
	return &v, nil
}
