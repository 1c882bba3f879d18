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
	"github.com/noah-isme/rekrut-api/pkg/database"
)

// FormRepository persists form definitions and the form settings key/value rows.
type FormRepository struct {
	db *sqlx.DB
}

// NewFormRepository constructs the repository.
func NewFormRepository(db *sqlx.DB) *FormRepository {
	return &FormRepository{db: db}
}

// List returns forms, newest first.
func (r *FormRepository) List(ctx context.Context) ([]models.Form, error) {
	const query = `SELECT id, name, created_by, created_at, updated_by, updated_at FROM forms ORDER BY created_at DESC`
	var forms []models.Form
	if err := r.db.SelectContext(ctx, &forms, query); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// FindByID loads a form by identifier.
func (r *FormRepository) FindByID(ctx context.Context, id string) (*models.Form, error) {
	const query = `SELECT id, name, created_by, created_at, updated_by, updated_at FROM forms WHERE id = $1`
	var form models.Form
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find form: %w", err)
	}
	return &form, nil
}

// Create inserts a new form.
func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	if form.CreatedAt.IsZero() {
		form.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO forms (id, name, created_by, created_at) VALUES (:id, :name, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, form); err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	return nil
}

// Update writes the merged form back.
func (r *FormRepository) Update(ctx context.Context, form *models.Form) error {
	const query = `UPDATE forms SET name = :name, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, form)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return requireAffected(res, "update form")
}

// Delete removes a form.
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return requireAffected(res, "delete form")
}

// ListSettings returns every stored form setting row.
func (r *FormRepository) ListSettings(ctx context.Context) ([]models.FormSetting, error) {
	const query = `SELECT key, value, updated_by, updated_at FROM form_settings ORDER BY key ASC`
	var settings []models.FormSetting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list form settings: %w", err)
	}
	return settings, nil
}

// UpsertSettings writes the given rows in a single transaction.
func (r *FormRepository) UpsertSettings(ctx context.Context, settings []models.FormSetting) error {
	if len(settings) == 0 {
		return nil
	}
	const query = `INSERT INTO form_settings (key, value, updated_by, updated_at)
VALUES (:key, :value, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range settings {
			settings[i].UpdatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, settings[i]); err != nil {
				return fmt.Errorf("upsert form setting %s: %w", settings[i].Key, err)
			}
		}
		return nil
	})
}
