package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
	"github.com/slp-tools/caseload-api/pkg/export"
)

// ReportFormat enumerates supported export encodings.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ContentType returns the MIME type for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportResult is a rendered report ready to stream to the caller.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders progress and documentation reports. Rendering is
// synchronous; payloads are small enough that no job queue is warranted.
type ExportService struct {
	students  studentFinder
	progress  *ProgressService
	soapNotes studentSOAPLister
	csv       csvRenderer
	pdf       pdfRenderer
	xlsx      xlsxRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(students studentFinder, progress *ProgressService, soapNotes studentSOAPLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{
		students:  students,
		progress:  progress,
		soapNotes: soapNotes,
		csv:       csv,
		pdf:       pdf,
		xlsx:      xlsx,
		logger:    logger,
		now:       time.Now,
	}
}

// ParseReportFormat validates a caller-supplied format string.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(raw) {
	case ReportFormatCSV, ReportFormatPDF, ReportFormatXLSX:
		return ReportFormat(raw), nil
	case "":
		return ReportFormatCSV, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", raw))
	}
}

// StudentProgressReport renders the student's per-objective progress.
func (s *ExportService) StudentProgressReport(ctx context.Context, studentID string, format ReportFormat) (*ExportResult, error) {
	student, err := s.lookupStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.StudentProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Goal", "Objective", "Target %", "Progress %", "Trials", "Independent", "Records"},
	}
	for _, goal := range progress.Goals {
		for _, objective := range goal.Objectives {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Goal":        goal.Goal.Description,
				"Objective":   objective.Objective.Description,
				"Target %":    strconv.Itoa(objective.Objective.TargetPercentage),
				"Progress %":  strconv.FormatFloat(objective.Progress, 'f', 1, 64),
				"Trials":      strconv.Itoa(objective.TotalTrials),
				"Independent": strconv.Itoa(objective.TotalIndependent),
				"Records":     strconv.Itoa(objective.RecordCount),
			})
		}
	}

	title := fmt.Sprintf("Progress Report - %s", student.DisplayName())
	return s.render(dataset, format, title, s.filename("progress", studentID, format))
}

// SOAPHistoryReport renders the student's SOAP note history.
func (s *ExportService) SOAPHistoryReport(ctx context.Context, studentID string, format ReportFormat) (*ExportResult, error) {
	student, err := s.lookupStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	notes, err := s.soapNotes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list soap notes")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Subjective", "Objective", "Assessment", "Plan"},
	}
	for _, note := range notes {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":       note.SessionDate.Format("2006-01-02"),
			"Subjective": note.Subjective,
			"Objective":  note.Objective,
			"Assessment": note.Assessment,
			"Plan":       note.Plan,
		})
	}

	title := fmt.Sprintf("SOAP History - %s", student.DisplayName())
	return s.render(dataset, format, title, s.filename("soap-history", studentID, format))
}

func (s *ExportService) lookupStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *ExportService) render(dataset export.Dataset, format ReportFormat, title, filename string) (*ExportResult, error) {
	var (
		payload []byte
		err     error
	)
	switch format {
	case ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	case ReportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, "Report")
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &ExportResult{
		Filename:    filename,
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *ExportService) filename(kind, studentID string, format ReportFormat) string {
	return fmt.Sprintf("%s-%s-%s.%s", kind, studentID, s.now().UTC().Format("20060102"), format)
}
