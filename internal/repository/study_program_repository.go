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

const studyProgramColumns = "id, name, degree, created_by, created_at, updated_by, updated_at"

// StudyProgramRepository handles persistence for study programs.
type StudyProgramRepository struct {
	db *sqlx.DB
}

// NewStudyProgramRepository instantiates the repository.
func NewStudyProgramRepository(db *sqlx.DB) *StudyProgramRepository {
	return &StudyProgramRepository{db: db}
}

// List returns every study program ordered by name.
func (r *StudyProgramRepository) List(ctx context.Context) ([]models.StudyProgram, error) {
	query := fmt.Sprintf("SELECT %s FROM study_programs ORDER BY name ASC", studyProgramColumns)
	var programs []models.StudyProgram
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list study programs: %w", err)
	}
	return programs, nil
}

// FindByID loads a study program by identifier.
func (r *StudyProgramRepository) FindByID(ctx context.Context, id string) (*models.StudyProgram, error) {
	query := fmt.Sprintf("SELECT %s FROM study_programs WHERE id = $1", studyProgramColumns)
	var program models.StudyProgram
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find study program: %w", err)
	}
	return &program, nil
}

// Create inserts a new study program.
func (r *StudyProgramRepository) Create(ctx context.Context, program *models.StudyProgram) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO study_programs (id, name, degree, created_by, created_at) VALUES (:id, :name, :degree, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create study program: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a study program.
func (r *StudyProgramRepository) Update(ctx context.Context, program *models.StudyProgram) error {
	const query = `UPDATE study_programs SET name = :name, degree = :degree, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, program)
	if err != nil {
		return fmt.Errorf("update study program: %w", err)
	}
	return requireAffected(res, "update study program")
}

// Delete removes a study program. Positions referencing it resolve the id as missing.
func (r *StudyProgramRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM study_programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete study program: %w", err)
	}
	return requireAffected(res, "delete study program")
}
