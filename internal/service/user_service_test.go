package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	listErr   error
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newUserFixture() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", NIP: "100", Name: "Admin", Email: "admin@example.com", Status: models.StatusActive},
		"u2": {ID: "u2", NIP: "200", Name: "Staff", Email: "staff@example.com", Status: models.StatusActive},
	}}
}

var adminActor = models.Actor{UserID: "u1", NIP: "100"}

func TestUserServiceList(t *testing.T) {
	svc := NewUserService(newUserFixture(), nil, zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, models.DefaultPageSize, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestUserServiceListPersistenceFailure(t *testing.T) {
	repo := newUserFixture()
	repo.listErr = errors.New("connection reset")
	svc := NewUserService(repo, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.UserFilter{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 500, appErr.Status)
	assert.Equal(t, "Something went wrong retrieving users", appErr.Message)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newUserFixture()
	svc := NewUserService(repo, nil, zap.NewNop())

	name := "Staff Member"
	user, err := svc.Update(context.Background(), "u2", dto.UpdateUserRequest{Name: &name}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Staff Member", user.Name)
	assert.Equal(t, "staff@example.com", user.Email)
	require.NotNil(t, user.UpdatedBy)
	assert.Equal(t, "100", *user.UpdatedBy)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, repo.auditLogs[0].Action)
}

func TestUserServiceUpdateDuplicateEmail(t *testing.T) {
	svc := NewUserService(newUserFixture(), nil, zap.NewNop())

	email := "admin@example.com"
	_, err := svc.Update(context.Background(), "u2", dto.UpdateUserRequest{Email: &email}, adminActor)
	require.Error(t, err)
	assert.Equal(t, "Email already taken.", appErrors.FromError(err).Message)
}

func TestUserServiceToggleStatus(t *testing.T) {
	repo := newUserFixture()
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.ToggleStatus(context.Background(), "u2", adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonActive, user.Status)

	_, err = svc.ToggleStatus(context.Background(), "u1", adminActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserServiceMissingIDsAreNotFound(t *testing.T) {
	svc := NewUserService(newUserFixture(), nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "User with the given ID was not found.", appErrors.FromError(err).Message)

	name := "x"
	_, err = svc.Update(ctx, "missing", dto.UpdateUserRequest{Name: &name}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	err = svc.Delete(ctx, "missing", adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newUserFixture()
	svc := NewUserService(repo, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "u2", adminActor))
	_, ok := repo.users["u2"]
	assert.False(t, ok)

	err := svc.Delete(context.Background(), "u1", adminActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
