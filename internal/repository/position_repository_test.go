package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/models"
)

var positionRowColumns = []string{"id", "name", "minimum_graduate", "study_programs", "minimum_gpa", "details", "status", "created_by", "created_at", "updated_by", "updated_at"}

func TestPositionListDecodesScopes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPositionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(positionRowColumns).
		AddRow("p1", "Lecturer", "MAGISTER", []byte(`"ALL"`), 3.25, "", "ACTIVE", "100", now, nil, nil).
		AddRow("p2", "Lab Assistant", "SARJANA", []byte(`["sp2","sp1"]`), 3.0, "", "ACTIVE", "100", now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM positions WHERE 1=1 AND status = $1 ORDER BY created_at DESC")).
		WithArgs("ACTIVE").
		WillReturnRows(rows)

	status := models.StatusActive
	positions, err := repo.List(context.Background(), models.PositionFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.True(t, positions[0].StudyPrograms.IsAny())
	assert.Equal(t, []string{"sp2", "sp1"}, positions[1].StudyPrograms.IDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPositionToggleStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPositionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE positions SET status = CASE WHEN status = 'ACTIVE' THEN 'NONACTIVE' ELSE 'ACTIVE' END")).
		WithArgs("p1", "100", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("NONACTIVE"))

	status, err := repo.ToggleStatus(context.Background(), "p1", "100", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonActive, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPositionReplaceMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPositionRepository(db)

	mock.ExpectExec("UPDATE positions SET name").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Replace(context.Background(), &models.Position{ID: "ghost", Name: "x", StudyPrograms: models.AnyStudyProgram()})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
