package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/internal/repository"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/jobs"
	"github.com/noah-isme/rekrut-api/pkg/storage"
)

type exportJobRepoStub struct {
	jobs    map[string]*models.ExportJob
	expired []string
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.FilePath != nil {
		job.FilePath = params.FilePath
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *exportJobRepoStub) ExpireFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	return r.expired, nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type generatorStub struct {
	path string
	err  error
}

func (g generatorStub) Generate(ctx context.Context, job *models.ExportJob) (string, error) {
	return g.path, g.err
}

type exportJobFixture struct {
	svc      *ExportJobService
	repo     *exportJobRepoStub
	queue    *dispatcherStub
	exporter *ExportService
	store    *storage.LocalStorage
}

func newExportJobFixture(t *testing.T) exportJobFixture {
	t.Helper()
	exporter, store, _ := newExportServiceForTest(t)
	repo := newExportJobRepoStub()
	queue := &dispatcherStub{}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	timelines := memoryTimelines{"p1": {ID: "p1", Title: "Batch 1"}}
	svc := NewExportJobService(repo, timelines, queue, exporter, signer, nil, zap.NewNop(), ExportJobConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour})
	return exportJobFixture{svc: svc, repo: repo, queue: queue, exporter: exporter, store: store}
}

func TestExportJobServiceCreateJob(t *testing.T) {
	f := newExportJobFixture(t)

	resp, err := f.svc.CreateJob(context.Background(), dto.CreateExportRequest{PeriodID: "p1", Format: models.ExportFormatCSV}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, resp.ID, f.queue.jobs[0].ID)
	assert.Equal(t, "100", f.repo.jobs[resp.ID].CreatedBy)
}

func TestExportJobServiceCreateJobRejections(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateJob(ctx, dto.CreateExportRequest{PeriodID: "p1", Format: "xlsx"}, adminActor)
	assert.Equal(t, 422, appErrors.FromError(err).Status)

	_, err = f.svc.CreateJob(ctx, dto.CreateExportRequest{PeriodID: "missing", Format: models.ExportFormatCSV}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	f.queue.err = jobs.ErrQueueFull
	_, err = f.svc.CreateJob(ctx, dto.CreateExportRequest{PeriodID: "p1", Format: models.ExportFormatCSV}, adminActor)
	require.Error(t, err)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportJobLifecycle(t *testing.T) {
	f := newExportJobFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateJob(ctx, dto.CreateExportRequest{PeriodID: "p1", Format: models.ExportFormatCSV}, adminActor)
	require.NoError(t, err)

	worker := NewExportWorker(f.repo, f.exporter, NewMetricsService(), zap.NewNop())
	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: created.ID}))

	status, err := f.svc.GetStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.DownloadURL)
	assert.True(t, strings.HasPrefix(*status.DownloadURL, "/api/v1/exports/"))

	token := strings.TrimPrefix(*status.DownloadURL, "/api/v1/exports/")
	download, err := f.svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	_, err = f.svc.ResolveDownload(ctx, token+"x")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportJobServiceGetStatusMissing(t *testing.T) {
	f := newExportJobFixture(t)
	_, err := f.svc.GetStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportWorkerFailureRequeuesThenFails(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, Params: models.ExportParams{Format: models.ExportFormatPDF}}
	worker := NewExportWorker(repo, generatorStub{err: errors.New("disk full")}, nil, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)
	require.NotNil(t, repo.jobs["job-1"].ErrorMessage)
	assert.Equal(t, "disk full", *repo.jobs["job-1"].ErrorMessage)

	worker.OnFailure(context.Background(), jobs.Job{ID: "job-1"}, err)
	assert.Equal(t, models.ExportStatusFailed, repo.jobs["job-1"].Status)
	assert.NotNil(t, repo.jobs["job-1"].FinishedAt)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	f := newExportJobFixture(t)
	f.repo.jobs["queued"] = &models.ExportJob{ID: "queued", Status: models.ExportStatusQueued}
	f.repo.jobs["done"] = &models.ExportJob{ID: "done", Status: models.ExportStatusFinished}

	f.svc.RecoverPendingJobs(context.Background())
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "queued", f.queue.jobs[0].ID)
}
