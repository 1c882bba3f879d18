package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rekrut-api/internal/models"
)

const timelineColumns = "id, title, type, start_date, end_date, positions, forms, status, created_by, created_at, updated_by, updated_at"

// TimelineRepository handles persistence for recruitment periods.
type TimelineRepository struct {
	db *sqlx.DB
}

// NewTimelineRepository instantiates the repository.
func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// List returns timelines ordered by creation time, newest first.
func (r *TimelineRepository) List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error) {
	var where whereBuilder
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}
	if filter.Type != "" {
		where.add("type = $%d", filter.Type)
	}
	query := fmt.Sprintf("SELECT %s FROM timelines WHERE 1=1%s ORDER BY created_at DESC", timelineColumns, where.clause())
	var timelines []models.Timeline
	if err := r.db.SelectContext(ctx, &timelines, query, where.args...); err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	return timelines, nil
}

// FindByID loads a timeline by identifier.
func (r *TimelineRepository) FindByID(ctx context.Context, id string) (*models.Timeline, error) {
	query := fmt.Sprintf("SELECT %s FROM timelines WHERE id = $1", timelineColumns)
	var timeline models.Timeline
	if err := r.db.GetContext(ctx, &timeline, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find timeline: %w", err)
	}
	return &timeline, nil
}

// Create inserts a new timeline.
func (r *TimelineRepository) Create(ctx context.Context, timeline *models.Timeline) error {
	if timeline.ID == "" {
		timeline.ID = uuid.NewString()
	}
	if timeline.CreatedAt.IsZero() {
		timeline.CreatedAt = time.Now().UTC()
	}
	if timeline.Status == "" {
		timeline.Status = models.StatusActive
	}
	const query = `INSERT INTO timelines (id, title, type, start_date, end_date, positions, forms, status, created_by, created_at) VALUES (:id, :title, :type, :start_date, :end_date, :positions, :forms, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, timeline); err != nil {
		return fmt.Errorf("create timeline: %w", err)
	}
	return nil
}

// Update writes the merged timeline back.
func (r *TimelineRepository) Update(ctx context.Context, timeline *models.Timeline) error {
	const query = `UPDATE timelines SET title = :title, type = :type, start_date = :start_date, end_date = :end_date, positions = :positions, forms = :forms, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, timeline)
	if err != nil {
		return fmt.Errorf("update timeline: %w", err)
	}
	return requireAffected(res, "update timeline")
}

// ToggleStatus flips ACTIVE and NONACTIVE and returns the new status.
func (r *TimelineRepository) ToggleStatus(ctx context.Context, id, actor string, at time.Time) (models.Status, error) {
	const query = `UPDATE timelines SET status = CASE WHEN status = 'ACTIVE' THEN 'NONACTIVE' ELSE 'ACTIVE' END, updated_by = $2, updated_at = $3 WHERE id = $1 RETURNING status`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, id, actor, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("toggle timeline status: %w", err)
	}
	return status, nil
}

// Delete removes a timeline.
func (r *TimelineRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timelines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}
	return requireAffected(res, "delete timeline")
}
