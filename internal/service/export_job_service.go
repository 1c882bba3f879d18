package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/internal/repository"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/jobs"
	"github.com/noah-isme/rekrut-api/pkg/storage"
)

const exportJobType = "submission_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ExpireFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (string, error)
}

// ExportJobConfig governs download links and cleanup.
type ExportJobConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is an opened export file ready to stream.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService manages the lifecycle of submission export jobs.
type ExportJobService struct {
	repo      exportJobStore
	timelines timelineLookup
	queue     jobDispatcher
	exporter  *ExportService
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig
}

// NewExportJobService constructs the service.
func NewExportJobService(repo exportJobStore, timelines timelineLookup, queue jobDispatcher, exporter *ExportService, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:      repo,
		timelines: timelines,
		queue:     queue,
		exporter:  exporter,
		signer:    signer,
		validator: defaultValidator(validate),
		logger:    defaultLogger(logger),
		cfg:       cfg,
	}
}

// CreateJob validates the request, persists a QUEUED job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.CreateExportRequest, actor models.Actor) (*dto.ExportJobResponse, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.timelines.FindByID(ctx, req.PeriodID); err != nil {
		return nil, lookup(s.logger, err, "retrieving", "timeline", "Timeline")
	}

	job := &models.ExportJob{
		Params: models.ExportParams{
			PeriodID:   req.PeriodID,
			PositionID: req.PositionID,
			Status:     req.Status,
			Format:     req.Format,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actor.NIP,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, persistence(s.logger, err, "adding", "export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType}); err != nil {
		msg := "failed to enqueue job"
		s.markFailed(ctx, job.ID, msg)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Something went wrong adding export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus reports job progress and, once finished, a signed download link.
func (s *ExportJobService) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "export job", "Export job")
	}
	resp := &dto.ExportStatusResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	if job.Status == models.ExportStatusFinished && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, persistence(s.logger, err, "retrieving", "export job")
		}
		url := s.downloadURL(token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// ResolveDownload validates token and opens the export file it grants.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	signed, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, signed.Subject)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "export job", "Export job")
	}
	if job.Status != models.ExportStatusFinished || job.FilePath == nil || *job.FilePath != signed.Path {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export is no longer available")
	}
	file, err := s.exporter.Open(signed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.NotFound("Export")
		}
		return nil, persistence(s.logger, err, "retrieving", "export")
	}
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(signed.Path),
		ContentType: s.exporter.ContentType(job.Params.Format),
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left QUEUED by a previous process.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup purges expired exports every CleanupInterval until ctx is done.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired releases exports older than the result TTL.
func (s *ExportJobService) CleanupExpired(ctx context.Context) {
	paths, err := s.repo.ExpireFinishedBefore(ctx, time.Now().UTC().Add(-s.cfg.ResultTTL))
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	for _, path := range paths {
		if err := s.exporter.Delete(path); err != nil {
			s.logger.Warn("export file delete failed", zap.String("path", path), zap.Error(err))
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export directory cleanup failed", zap.Error(err))
	}
}

func (s *ExportJobService) markFailed(ctx context.Context, id, msg string) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *ExportJobService) downloadURL(token string) string {
	return fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo     exportJobStore
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	return &ExportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: defaultLogger(logger)}
}

// Handle processes one queued export. Failures leave the job QUEUED so the
// queue can retry it; OnFailure marks it FAILED once retries are exhausted.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if notFound(err) {
			w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	relPath, err := w.exporter.Generate(ctx, record)
	if err != nil {
		queued := models.ExportStatusQueued
		reset := 0
		msg := err.Error()
		if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &queued, Progress: &reset, ErrorMessage: &msg}); updateErr != nil {
			w.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		FilePath:     &relPath,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		return err
	}
	w.metrics.ExportFinished(string(record.Params.Format), string(finished))
	return nil
}

// OnFailure marks a job FAILED after the queue gave up on it.
func (w *ExportWorker) OnFailure(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	msg := cause.Error()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	format := ""
	if record, err := w.repo.GetByID(ctx, job.ID); err == nil {
		format = string(record.Params.Format)
	}
	w.metrics.ExportFinished(format, string(failed))
}
