package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/pkg/export"
)

type exportSubmissionSource interface {
	ListAll(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
}

type exportPositionSource interface {
	List(ctx context.Context, filter models.PositionFilter) ([]models.Position, error)
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportService builds submission datasets for a period and stores the rendered file.
type ExportService struct {
	submissions exportSubmissionSource
	positions   exportPositionSource
	timelines   timelineLookup
	storage     fileStorage
	renderers   map[models.ExportFormat]Renderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(submissions exportSubmissionSource, positions exportPositionSource, timelines timelineLookup, storage fileStorage, logger *zap.Logger) *ExportService {
	return &ExportService{
		submissions: submissions,
		positions:   positions,
		timelines:   timelines,
		storage:     storage,
		renderers: map[models.ExportFormat]Renderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: defaultLogger(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ContentType returns the MIME type served for format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if r, ok := s.renderers[format]; ok {
		return r.ContentType()
	}
	return "application/octet-stream"
}

// Generate renders the export described by job and returns the stored relative path.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (string, error) {
	if job == nil {
		return "", fmt.Errorf("export job nil")
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return "", fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
	dataset, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return "", err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return "", fmt.Errorf("render %s export: %w", job.Params.Format, err)
	}
	relPath, err := s.storage.Save(s.buildFilename(job, renderer.Extension()), payload)
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	return relPath, nil
}

// Open returns a handle to a stored export.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes stored exports older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

var submissionExportColumns = []export.Column{
	{Key: "fullName", Title: "Full Name"},
	{Key: "email", Title: "Email"},
	{Key: "phoneNumber", Title: "Phone"},
	{Key: "lastEducation", Title: "Education"},
	{Key: "position", Title: "Position"},
	{Key: "status", Title: "Status"},
	{Key: "academicScore", Title: "Academic"},
	{Key: "psikotesScore", Title: "Psikotes"},
	{Key: "interviewScore", Title: "Interview"},
	{Key: "passed", Title: "Passed"},
	{Key: "determination", Title: "Determination"},
	{Key: "createdAt", Title: "Submitted At"},
}

func (s *ExportService) buildDataset(ctx context.Context, params models.ExportParams) (export.Dataset, error) {
	timeline, err := s.timelines.FindByID(ctx, params.PeriodID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load export period: %w", err)
	}
	filter := models.SubmissionFilter{PeriodID: params.PeriodID, Status: params.Status}
	if params.PositionID != nil {
		filter.PositionID = *params.PositionID
	}
	submissions, err := s.submissions.ListAll(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}
	positions, err := s.positions.List(ctx, models.PositionFilter{})
	if err != nil {
		return export.Dataset{}, err
	}
	names := make(map[string]string, len(positions))
	for _, p := range positions {
		names[p.ID] = p.Name
	}

	rows := make([]map[string]string, 0, len(submissions))
	for _, sub := range submissions {
		position := names[sub.PositionID]
		if position == "" {
			position = sub.PositionID
		}
		rows = append(rows, map[string]string{
			"fullName":       sub.FullName,
			"email":          sub.Email,
			"phoneNumber":    sub.PhoneNumber,
			"lastEducation":  sub.LastEducation,
			"position":       position,
			"status":         sub.Status.String(),
			"academicScore":  formatScore(sub.Score.AcademicScore),
			"psikotesScore":  formatScore(sub.Score.PsikotesScore),
			"interviewScore": formatScore(sub.Score.InterviewScore),
			"passed":         sub.Passed.String(),
			"determination":  sub.Determination.String(),
			"createdAt":      sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Submissions %s (%s)", timeline.Title, timeline.Type),
		Columns: submissionExportColumns,
		Rows:    rows,
	}, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob, ext string) string {
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("submissions_%s_%s_%s.%s", sanitizeFilename(job.Params.PeriodID), sanitizeFilename(job.ID), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
