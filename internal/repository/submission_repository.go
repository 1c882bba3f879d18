package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rekrut-api/internal/models"
)

// Decision transition failures detected inside the quota transaction.
var (
	ErrQuotaMet        = errors.New("quota already met")
	ErrPeriodNotFound  = errors.New("recruitment period not found")
	ErrQuotaNotDefined = errors.New("no quota configured for position")
)

const submissionColumns = `id, full_name, email, address, origin_from, date_of_birth, gender, phone_number, last_education, position_id, period_id, toefl_score, toefl_file, score_360, file_360, cv_file, profile_picture, status, academic_score AS "score.academic_score", psikotes_score AS "score.psikotes_score", interview_score AS "score.interview_score", passed, determination, created_at, updated_at`

// SubmissionRepository persists applicant submissions and their workflow transitions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, full_name, email, address, origin_from, date_of_birth, gender, phone_number, last_education, position_id, period_id, toefl_score, toefl_file, score_360, file_360, cv_file, profile_picture, status, academic_score, psikotes_score, interview_score, passed, determination, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.FullName, s.Email, s.Address, s.OriginFrom, s.DateOfBirth, s.Gender, s.PhoneNumber, s.LastEducation,
		s.PositionID, s.PeriodID, s.ToeflScore, s.ToeflFile, s.Score360, s.File360, s.CVFile, s.ProfilePicture,
		s.Status, s.Score.AcademicScore, s.Score.PsikotesScore, s.Score.InterviewScore, s.Passed, s.Determination, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID loads a submission by identifier.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	var s models.Submission
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &s, nil
}

func submissionWhere(filter models.SubmissionFilter) whereBuilder {
	var where whereBuilder
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}
	if filter.PositionID != "" {
		where.add("position_id = $%d", filter.PositionID)
	}
	if filter.PeriodID != "" {
		where.add("period_id = $%d", filter.PeriodID)
	}
	if filter.Passed != nil {
		where.add("passed = $%d", *filter.Passed)
	}
	if filter.Determination != nil {
		where.add("determination = $%d", *filter.Determination)
	}
	if filter.Search != "" {
		n := len(where.args) + 1
		where.args = append(where.args, "%"+strings.ToLower(filter.Search)+"%")
		where.conditions = append(where.conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", n, n))
	}
	return where
}

// List returns a page of submissions, newest first, and the total match count.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	where := submissionWhere(filter)
	base := "FROM submissions WHERE 1=1" + where.clause()
	limit, offset := pageOffset(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", submissionColumns, base, limit, offset)
	var items []models.Submission
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return items, total, nil
}

// ListAll returns every submission matching filter, oldest first, ignoring pagination.
func (r *SubmissionRepository) ListAll(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	where := submissionWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE 1=1%s ORDER BY created_at ASC", submissionColumns, where.clause())
	var items []models.Submission
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, fmt.Errorf("list all submissions: %w", err)
	}
	return items, nil
}

// UpdateStatus moves one submission to stage.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, stage models.Stage, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE submissions SET status = $2, updated_at = $3 WHERE id = $1`, id, stage, at)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return requireAffected(res, "update submission status")
}

// UpdateScore merges patch onto the stored sub-scores in one statement; nil
// sub-scores keep their stored value. It returns the resulting score.
func (r *SubmissionRepository) UpdateScore(ctx context.Context, id string, patch models.ScorePatch, at time.Time) (*models.Score, error) {
	const query = `UPDATE submissions SET
academic_score = COALESCE($2, academic_score),
psikotes_score = COALESCE($3, psikotes_score),
interview_score = COALESCE($4, interview_score),
updated_at = $5
WHERE id = $1
RETURNING academic_score, psikotes_score, interview_score`
	var score models.Score
	if err := r.db.GetContext(ctx, &score, query, id, patch.AcademicScore, patch.PsikotesScore, patch.InterviewScore, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update submission score: %w", err)
	}
	return &score, nil
}

// DecisionUpdate describes a passed or determination transition.
type DecisionUpdate struct {
	ID    string
	Axis  models.DecisionAxis
	Value models.Decision
	// QuotaFailOpen admits the transition when the period has no quota entry for the position.
	QuotaFailOpen bool
	UpdatedAt     time.Time
}

// SetDecision applies a decision transition. Accepting runs the quota check in the
// same transaction while holding the period row lock, so concurrent accepts for a
// period are serialised and cannot overshoot its quota. On any failure the stored
// submission is left unchanged.
func (r *SubmissionRepository) SetDecision(ctx context.Context, upd DecisionUpdate) (*models.Submission, error) {
	column, err := upd.Axis.Column()
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin decision tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ref struct {
		PositionID string `db:"position_id"`
		PeriodID   string `db:"period_id"`
	}
	if err = tx.GetContext(ctx, &ref, `SELECT position_id, period_id FROM submissions WHERE id = $1 FOR UPDATE`, upd.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock submission: %w", err)
	}

	if upd.Value == models.DecisionAccepted {
		if err = checkQuota(ctx, tx, column, ref.PositionID, ref.PeriodID, upd); err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf("UPDATE submissions SET %s = $2, updated_at = $3 WHERE id = $1 RETURNING %s", column, submissionColumns)
	var updated models.Submission
	if err = tx.GetContext(ctx, &updated, query, upd.ID, upd.Value, upd.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update submission %s: %w", column, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decision tx: %w", err)
	}
	return &updated, nil
}

func checkQuota(ctx context.Context, tx *sqlx.Tx, column, positionID, periodID string, upd DecisionUpdate) error {
	var quotas models.PositionQuotas
	if err := tx.GetContext(ctx, &quotas, `SELECT positions FROM timelines WHERE id = $1 FOR UPDATE`, periodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPeriodNotFound
		}
		return fmt.Errorf("lock timeline: %w", err)
	}

	quota, ok := models.Timeline{Positions: quotas}.QuotaFor(positionID)
	if !ok {
		if upd.QuotaFailOpen {
			return nil
		}
		return ErrQuotaNotDefined
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM submissions WHERE position_id = $1 AND period_id = $2 AND %s = $3 AND id <> $4", column)
	var accepted int
	if err := tx.GetContext(ctx, &accepted, countQuery, positionID, periodID, models.DecisionAccepted, upd.ID); err != nil {
		return fmt.Errorf("count accepted submissions: %w", err)
	}
	if accepted >= quota {
		return ErrQuotaMet
	}
	return nil
}
