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

const positionColumns = "id, name, minimum_graduate, study_programs, minimum_gpa, details, status, created_by, created_at, updated_by, updated_at"

// PositionRepository handles persistence for positions.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository instantiates the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// List returns positions, newest first, optionally filtered by status.
func (r *PositionRepository) List(ctx context.Context, filter models.PositionFilter) ([]models.Position, error) {
	base := "FROM positions WHERE 1=1"
	var where whereBuilder
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}
	query := fmt.Sprintf("SELECT %s %s%s ORDER BY created_at DESC", positionColumns, base, where.clause())
	var positions []models.Position
	if err := r.db.SelectContext(ctx, &positions, query, where.args...); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// FindByID loads a position by identifier.
func (r *PositionRepository) FindByID(ctx context.Context, id string) (*models.Position, error) {
	query := fmt.Sprintf("SELECT %s FROM positions WHERE id = $1", positionColumns)
	var position models.Position
	if err := r.db.GetContext(ctx, &position, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find position: %w", err)
	}
	return &position, nil
}

// Create inserts a new position.
func (r *PositionRepository) Create(ctx context.Context, position *models.Position) error {
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	if position.CreatedAt.IsZero() {
		position.CreatedAt = time.Now().UTC()
	}
	if position.Status == "" {
		position.Status = models.StatusActive
	}
	const query = `INSERT INTO positions (id, name, minimum_graduate, study_programs, minimum_gpa, details, status, created_by, created_at) VALUES (:id, :name, :minimum_graduate, :study_programs, :minimum_gpa, :details, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, position); err != nil {
		return fmt.Errorf("create position: %w", err)
	}
	return nil
}

// Replace overwrites every mutable field of a position. Status and creation audit are kept.
func (r *PositionRepository) Replace(ctx context.Context, position *models.Position) error {
	const query = `UPDATE positions SET name = :name, minimum_graduate = :minimum_graduate, study_programs = :study_programs, minimum_gpa = :minimum_gpa, details = :details, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, position)
	if err != nil {
		return fmt.Errorf("replace position: %w", err)
	}
	return requireAffected(res, "replace position")
}

// ToggleStatus flips ACTIVE and NONACTIVE and returns the new status.
func (r *PositionRepository) ToggleStatus(ctx context.Context, id, actor string, at time.Time) (models.Status, error) {
	const query = `UPDATE positions SET status = CASE WHEN status = 'ACTIVE' THEN 'NONACTIVE' ELSE 'ACTIVE' END, updated_by = $2, updated_at = $3 WHERE id = $1 RETURNING status`
	var status models.Status
	if err := r.db.GetContext(ctx, &status, query, id, actor, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("toggle position status: %w", err)
	}
	return status, nil
}

// Delete removes a position.
func (r *PositionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return requireAffected(res, "delete position")
}
