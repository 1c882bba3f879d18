package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type memoryPrograms struct {
	mu        sync.Mutex
	items     map[string]models.StudyProgram
	seq       int
	findCalls int
}

func newMemoryPrograms(items ...models.StudyProgram) *memoryPrograms {
	m := &memoryPrograms{items: map[string]models.StudyProgram{}}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *memoryPrograms) List(ctx context.Context) ([]models.StudyProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudyProgram
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, nil
}

func (m *memoryPrograms) FindByID(ctx context.Context, id string) (*models.StudyProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (m *memoryPrograms) Create(ctx context.Context, program *models.StudyProgram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	program.ID = fmt.Sprintf("sp-%d", m.seq)
	m.items[program.ID] = *program
	return nil
}

func (m *memoryPrograms) Update(ctx context.Context, program *models.StudyProgram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[program.ID]; !ok {
		return sql.ErrNoRows
	}
	m.items[program.ID] = *program
	return nil
}

func (m *memoryPrograms) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memoryPrograms) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}

func TestStudyProgramServiceCreateThenGet(t *testing.T) {
	svc := NewStudyProgramService(newMemoryPrograms(), nil, 0, nil, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.StudyProgramRequest{Name: "Informatika", Degree: models.GraduateSarjana}, adminActor)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "100", created.CreatedBy)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Informatika", got.Name)
	assert.Equal(t, models.GraduateSarjana, got.Degree)
}

func TestStudyProgramServiceValidation(t *testing.T) {
	svc := NewStudyProgramService(newMemoryPrograms(), nil, 0, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.StudyProgramRequest{Name: "", Degree: "BACHELOR"}, adminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 422, appErr.Status)
	assert.Len(t, appErr.Fields, 2)
}

func TestStudyProgramServiceCachesReads(t *testing.T) {
	repo := newMemoryPrograms(models.StudyProgram{ID: "sp-1", Name: "Hukum", Degree: models.GraduateSarjana})
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := NewStudyProgramService(repo, cache, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.Get(ctx, "sp-1")
		require.NoError(t, err)
		assert.Equal(t, "Hukum", got.Name)
	}
	assert.Equal(t, 1, repo.calls())

	_, err := svc.Update(ctx, "sp-1", dto.StudyProgramRequest{Name: "Ilmu Hukum", Degree: models.GraduateMagister}, adminActor)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "sp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ilmu Hukum", got.Name)
	assert.Equal(t, models.GraduateMagister, got.Degree)
	require.NotNil(t, got.UpdatedBy)
	assert.Equal(t, "100", *got.UpdatedBy)

	require.NoError(t, svc.Delete(ctx, "sp-1"))
	_, err = svc.Get(ctx, "sp-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudyProgramServiceMissingIDs(t *testing.T) {
	svc := NewStudyProgramService(newMemoryPrograms(), nil, 0, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Get(ctx, "nope")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "Study program with the given ID was not found.", appErr.Message)

	_, err = svc.Update(ctx, "nope", dto.StudyProgramRequest{Name: "X", Degree: models.GraduateDiploma}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "nope"), appErrors.ErrNotFound)
}
