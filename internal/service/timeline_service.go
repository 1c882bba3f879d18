package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type timelineRepository interface {
	List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error)
	FindByID(ctx context.Context, id string) (*models.Timeline, error)
	Create(ctx context.Context, timeline *models.Timeline) error
	Update(ctx context.Context, timeline *models.Timeline) error
	ToggleStatus(ctx context.Context, id, actor string, at time.Time) (models.Status, error)
	Delete(ctx context.Context, id string) error
}

type timelinePositionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Position, error)
}

// TimelineService manages recruitment periods.
type TimelineService struct {
	repo      timelineRepository
	positions timelinePositionLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimelineService constructs a TimelineService. When positions is nil the
// quota entries are stored without checking that their positions exist.
func NewTimelineService(repo timelineRepository, positions timelinePositionLookup, validate *validator.Validate, logger *zap.Logger) *TimelineService {
	return &TimelineService{repo: repo, positions: positions, validator: defaultValidator(validate), logger: defaultLogger(logger)}
}

// List returns timelines, newest first.
func (s *TimelineService) List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error) {
	timelines, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, persistence(s.logger, err, "retrieving", "timelines")
	}
	if timelines == nil {
		timelines = []models.Timeline{}
	}
	return timelines, nil
}

// Get returns a timeline by id.
func (s *TimelineService) Get(ctx context.Context, id string) (*models.Timeline, error) {
	timeline, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "timeline", "Timeline")
	}
	return timeline, nil
}

// Create opens a new ACTIVE recruitment period.
func (s *TimelineService) Create(ctx context.Context, req dto.CreateTimelineRequest, actor models.Actor) (*models.Timeline, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	timeline := &models.Timeline{
		Title:     req.Title,
		Type:      req.Type,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Positions: models.PositionQuotas(req.Positions),
		Forms:     req.Forms,
		Status:    models.StatusActive,
		CreatedBy: actor.NIP,
		CreatedAt: time.Now().UTC(),
	}
	if timeline.Forms == nil {
		timeline.Forms = []string{}
	}
	if err := checkTimeline(timeline); err != nil {
		return nil, err
	}
	if err := s.checkPositions(ctx, timeline.Positions); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, timeline); err != nil {
		return nil, persistence(s.logger, err, "adding", "timeline")
	}
	return timeline, nil
}

// Update merges the provided fields onto the stored timeline; absent fields keep their value.
func (s *TimelineService) Update(ctx context.Context, id string, req dto.UpdateTimelineRequest, actor models.Actor) (*models.Timeline, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	timeline, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "timeline", "Timeline")
	}

	if req.Title != nil {
		timeline.Title = *req.Title
	}
	if req.Type != nil {
		timeline.Type = *req.Type
	}
	if req.StartDate != nil {
		timeline.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		timeline.EndDate = *req.EndDate
	}
	if req.Positions != nil {
		timeline.Positions = models.PositionQuotas(req.Positions)
	}
	if req.Forms != nil {
		timeline.Forms = req.Forms
	}
	if err := checkTimeline(timeline); err != nil {
		return nil, err
	}
	if req.Positions != nil {
		if err := s.checkPositions(ctx, timeline.Positions); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	timeline.UpdatedBy = &actor.NIP
	timeline.UpdatedAt = &now
	if err := s.repo.Update(ctx, timeline); err != nil {
		return nil, lookup(s.logger, err, "updating", "timeline", "Timeline")
	}
	return timeline, nil
}

// ToggleStatus flips ACTIVE and NONACTIVE and returns the new status.
func (s *TimelineService) ToggleStatus(ctx context.Context, id string, actor models.Actor) (models.Status, error) {
	status, err := s.repo.ToggleStatus(ctx, id, actor.NIP, time.Now().UTC())
	if err != nil {
		return "", lookup(s.logger, err, "updating", "timeline", "Timeline")
	}
	return status, nil
}

// Delete removes a timeline.
func (s *TimelineService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookup(s.logger, err, "deleting", "timeline", "Timeline")
	}
	return nil
}

// checkPositions rejects quota entries whose position does not exist.
func (s *TimelineService) checkPositions(ctx context.Context, quotas models.PositionQuotas) error {
	if s.positions == nil {
		return nil
	}
	var fields []appErrors.FieldError
	for _, entry := range quotas {
		if _, err := s.positions.FindByID(ctx, entry.PositionID); err != nil {
			if !notFound(err) {
				return persistence(s.logger, err, "retrieving", "position")
			}
			fields = append(fields, appErrors.FieldError{
				Field:   "positions",
				Message: fmt.Sprintf("position %s does not exist", entry.PositionID),
			})
		}
	}
	if len(fields) > 0 {
		return appErrors.Validation(appErrors.ErrValidation.Message, fields...)
	}
	return nil
}

// checkTimeline enforces the cross-field rules: both dates set, start before
// end and one quota entry per position.
func checkTimeline(t *models.Timeline) error {
	var fields []appErrors.FieldError
	if t.StartDate.IsZero() {
		fields = append(fields, appErrors.FieldError{Field: "startDate", Message: "startDate is required"})
	}
	if t.EndDate.IsZero() {
		fields = append(fields, appErrors.FieldError{Field: "endDate", Message: "endDate is required"})
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && !t.StartDate.Before(t.EndDate.Time) {
		fields = append(fields, appErrors.FieldError{Field: "endDate", Message: "endDate must be after startDate"})
	}
	seen := make(map[string]struct{}, len(t.Positions))
	for _, entry := range t.Positions {
		if _, dup := seen[entry.PositionID]; dup {
			fields = append(fields, appErrors.FieldError{Field: "positions", Message: "positions must not repeat a positionId"})
			break
		}
		seen[entry.PositionID] = struct{}{}
	}
	if len(fields) > 0 {
		return appErrors.Validation(appErrors.ErrValidation.Message, fields...)
	}
	return nil
}
