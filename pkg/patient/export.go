package patient

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

var csvHeader = []string{
	"patient_id", "name", "dob", "age", "gender", "condition", "symptoms",
	"bp", "hr", "temp", "ehr_file", "risk", "department", "confidence",
	"analyzed_at", "timestamp",
}

// WriteCSV writes one row per patient. Unanalyzed patients have empty
// derived columns.
func WriteCSV(w io.Writer, patients []models.Patient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range patients {
		var risk, department, confidence, analyzedAt string
		if p.Analysis != nil {
			risk = string(p.Analysis.Risk)
			department = p.Analysis.Department
			confidence = strconv.FormatFloat(p.Analysis.Confidence, 'f', 2, 64)
		}
		if p.AnalyzedAt != nil {
			analyzedAt = p.AnalyzedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		row := []string{
			p.PatientID,
			p.Name,
			p.DOB,
			strconv.Itoa(p.Age),
			p.Gender,
			p.Condition,
			p.SymptomSummary,
			strconv.Itoa(p.BloodPressure),
			strconv.Itoa(p.HeartRate),
			strconv.FormatFloat(p.Temperature, 'f', 2, 64),
			p.DocumentKey,
			risk,
			department,
			confidence,
			analyzedAt,
			p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport renders a one-page PDF summary of a patient.
func WriteReport(w io.Writer, p models.Patient) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("MedTriage Patient Report "+p.PatientID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr("MedTriage AI – Patient Report"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	risk, department, confidence := "Not analyzed", "-", "-"
	if p.Analysis != nil {
		risk = string(p.Analysis.Risk)
		department = p.Analysis.Department
		confidence = strconv.FormatFloat(p.Analysis.Confidence, 'f', 2, 64)
	}

	lines := [][2]string{
		{"Patient ID", p.PatientID},
		{"Name", p.Name},
		{"Age", strconv.Itoa(p.Age)},
		{"Gender", p.Gender},
		{"Condition", p.Condition},
		{"Symptoms", p.SymptomSummary},
		{"Blood Pressure", strconv.Itoa(p.BloodPressure)},
		{"Heart Rate", strconv.Itoa(p.HeartRate)},
		{"Temperature", strconv.FormatFloat(p.Temperature, 'f', 2, 64)},
		{"Risk Level", risk},
		{"Department", department},
		{"Confidence", confidence + "%"},
	}

	for _, line := range lines {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, tr(line[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 8, tr(strings.TrimSpace(line[1])), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering report for %s: %w", p.PatientID, err)
	}
	return nil
}
