package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/internal/repository"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	UpdateStatus(ctx context.Context, id string, stage models.Stage, at time.Time) error
	UpdateScore(ctx context.Context, id string, patch models.ScorePatch, at time.Time) (*models.Score, error)
	SetDecision(ctx context.Context, upd repository.DecisionUpdate) (*models.Submission, error)
}

type timelineLookup interface {
	FindByID(ctx context.Context, id string) (*models.Timeline, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

const submissionEntity = "submission(s)"

// SubmissionConfig tunes the workflow.
type SubmissionConfig struct {
	BulkConcurrency int
	QuotaFailOpen   bool
}

// SubmissionService runs applicant intake and the recruitment workflow:
// pipeline status, scoring and the quota-gated passed/determination decisions.
type SubmissionService struct {
	repo      submissionRepository
	timelines timelineLookup
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    SubmissionConfig
	now       func() time.Time
}

// NewSubmissionService constructs the service. audit and metrics may be nil.
func NewSubmissionService(repo submissionRepository, timelines timelineLookup, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SubmissionConfig) *SubmissionService {
	if cfg.BulkConcurrency <= 0 {
		cfg.BulkConcurrency = 8
	}
	return &SubmissionService{
		repo:      repo,
		timelines: timelines,
		audit:     audit,
		metrics:   metrics,
		validator: defaultValidator(validate),
		logger:    defaultLogger(logger),
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records a new application against an open period that lists the position.
func (s *SubmissionService) Create(ctx context.Context, req dto.CreateSubmissionRequest) (*models.Submission, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.DateOfBirth.IsZero() {
		return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "dateOfBirth", Message: "dateOfBirth is required"})
	}

	now := s.now()
	timeline, err := s.timelines.FindByID(ctx, req.PeriodID)
	if err != nil {
		if notFound(err) {
			return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "periodId", Message: "periodId does not reference a recruitment period"})
		}
		return nil, persistence(s.logger, err, "adding", submissionEntity)
	}
	if !timeline.Accepting(now) {
		return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "periodId", Message: "recruitment period is not accepting applications"})
	}
	if _, ok := timeline.QuotaFor(req.PositionID); !ok {
		return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "positionId", Message: "position is not open in this recruitment period"})
	}

	submission := &models.Submission{
		FullName:       req.FullName,
		Email:          req.Email,
		Address:        req.Address,
		OriginFrom:     req.OriginFrom,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		PhoneNumber:    req.PhoneNumber,
		LastEducation:  req.LastEducation,
		PositionID:     req.PositionID,
		PeriodID:       req.PeriodID,
		ToeflScore:     req.ToeflScore,
		ToeflFile:      req.ToeflFile,
		Score360:       req.Score360,
		File360:        req.File360,
		CVFile:         req.CVFile,
		ProfilePicture: req.ProfilePicture,
		Status:         models.StageSubmitted,
		Passed:         models.DecisionPending,
		Determination:  models.DecisionPending,
		CreatedAt:      now,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, persistence(s.logger, err, "adding", submissionEntity)
	}
	s.metrics.SubmissionCreated()
	return submission, nil
}

// List returns a page of submissions matching filter.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, persistence(s.logger, err, "retrieving", submissionEntity)
	}
	if items == nil {
		items = []models.Submission{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one submission.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", submissionEntity, "Submission")
	}
	return submission, nil
}

// UpdateStatus moves every listed submission to the requested stage. Each id is
// written independently; the batch succeeds even when some ids fail, and the
// failures are reported per id.
func (s *SubmissionService) UpdateStatus(ctx context.Context, req dto.BulkStatusRequest, actor models.Actor) (*models.BulkStatusResult, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	stage := *req.UpdatedStatus
	at := s.now()

	reasons := make([]string, len(req.Applicants))
	var g errgroup.Group
	g.SetLimit(s.config.BulkConcurrency)
	for i, id := range req.Applicants {
		i, id := i, id
		g.Go(func() error {
			if err := s.repo.UpdateStatus(ctx, id, stage, at); err != nil {
				if notFound(err) {
					reasons[i] = appErrors.NotFound("Submission").Message
					return nil
				}
				s.logger.Error("update submission status failed", zap.String("submission_id", id), zap.Error(err))
				reasons[i] = appErrors.Internal(err, "updating", submissionEntity).Message
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &models.BulkStatusResult{
		Applicants:    req.Applicants,
		UpdatedStatus: stage,
		Updated:       []string{},
		Failed:        []models.BulkStatusFailure{},
	}
	for i, id := range req.Applicants {
		if reasons[i] == "" {
			result.Updated = append(result.Updated, id)
			continue
		}
		result.Failed = append(result.Failed, models.BulkStatusFailure{ID: id, Reason: reasons[i]})
	}

	s.metrics.StatusUpdatesRecorded(len(result.Updated), len(result.Failed))
	payload, _ := json.Marshal(map[string]interface{}{"status": stage, "updated": result.Updated})
	s.record(ctx, models.AuditActionStatusBulkUpdate, "", payload, actor)
	return result, nil
}

// UpdateScore merges the provided sub-scores; omitted ones keep their value and
// an explicit zero is stored. A patch naming no sub-score writes nothing.
func (s *SubmissionService) UpdateScore(ctx context.Context, id string, req dto.UpdateScoreRequest) (*dto.ScoreResponse, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.Score.Empty() {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, lookup(s.logger, err, "retrieving", submissionEntity, "Submission")
		}
		return &dto.ScoreResponse{ID: id, Score: current.Score}, nil
	}
	score, err := s.repo.UpdateScore(ctx, id, *req.Score, s.now())
	if err != nil {
		return nil, lookup(s.logger, err, "updating", submissionEntity, "Submission")
	}
	return &dto.ScoreResponse{ID: id, Score: *score}, nil
}

// SetPassed records the agreement (passed) decision.
func (s *SubmissionService) SetPassed(ctx context.Context, req dto.AgreementRequest, actor models.Actor) (*models.Submission, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	return s.decide(ctx, req.ID, models.AxisPassed, *req.Passed, actor)
}

// SetDetermination records the final determination decision.
func (s *SubmissionService) SetDetermination(ctx context.Context, req dto.DeterminationRequest, actor models.Actor) (*models.Submission, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	return s.decide(ctx, req.ID, models.AxisDetermination, *req.Determination, actor)
}

// decide applies a decision. Accepting is gated by the period quota for the
// submission's position; a rejected transition leaves the record unchanged.
func (s *SubmissionService) decide(ctx context.Context, id string, axis models.DecisionAxis, value models.Decision, actor models.Actor) (*models.Submission, error) {
	updated, err := s.repo.SetDecision(ctx, repository.DecisionUpdate{
		ID:            id,
		Axis:          axis,
		Value:         value,
		QuotaFailOpen: s.config.QuotaFailOpen,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQuotaMet):
			s.metrics.DecisionRecorded(string(axis), value.String(), "quota_exceeded")
			return nil, appErrors.ErrQuotaExceeded
		case errors.Is(err, repository.ErrQuotaNotDefined):
			s.metrics.DecisionRecorded(string(axis), value.String(), "quota_exceeded")
			return nil, appErrors.Clone(appErrors.ErrQuotaExceeded, "no quota configured for this position")
		case errors.Is(err, repository.ErrPeriodNotFound):
			return nil, appErrors.NotFound("Timeline")
		}
		return nil, lookup(s.logger, err, "updating", submissionEntity, "Submission")
	}

	s.metrics.DecisionRecorded(string(axis), value.String(), "applied")
	payload, _ := json.Marshal(map[string]interface{}{string(axis): value})
	s.record(ctx, models.AuditActionDecisionUpdate, id, payload, actor)
	return updated, nil
}

func (s *SubmissionService) record(ctx context.Context, action, resourceID string, values []byte, actor models.Actor) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  "submissions",
		NewValues: values,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if actor.UserID != "" {
		entry.UserID = &actor.UserID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record submission audit log", zap.String("action", action), zap.Error(err))
	}
}
