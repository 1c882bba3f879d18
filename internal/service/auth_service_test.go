package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	refreshTokens    map[string]*models.RefreshToken
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
	findErr          error
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) find(match func(*models.User) bool) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *mockAuthRepo) FindByNIP(ctx context.Context, nip string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.NIP == nip })
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "generated"
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, RefreshTokenExpiry: 24 * time.Hour, Issuer: "rekrut-api"}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "123", NIP: "1987", Email: "user@example.com", PasswordHash: hashed(t, "password"), Status: models.StatusActive})
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "1987", res.User.NIP)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "123", Email: "user@example.com", PasswordHash: hashed(t, "password"), Status: models.StatusActive})
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 403, appErr.Status)
	assert.Equal(t, "Wrong credentials.", appErr.Message)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "123", Email: "user@example.com", PasswordHash: hashed(t, "password"), Status: models.StatusNonActive})
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		NIP: "1987", Name: "Rina", Email: "rina@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	stored := repo.users["generated"]
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusActive, stored.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestAuthServiceRegisterRejections(t *testing.T) {
	existing := &models.User{ID: "u1", NIP: "1987", Email: "taken@example.com"}

	tests := []struct {
		name    string
		req     models.RegisterRequest
		status  int
		message string
	}{
		{
			name:    "password mismatch",
			req:     models.RegisterRequest{NIP: "2000", Name: "A", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret2"},
			status:  422,
			message: "",
		},
		{
			name:    "duplicate nip",
			req:     models.RegisterRequest{NIP: "1987", Name: "A", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"},
			status:  409,
			message: "NIP Already taken.",
		},
		{
			name:    "duplicate email",
			req:     models.RegisterRequest{NIP: "2000", Name: "A", Email: "taken@example.com", Password: "secret1", ConfirmPassword: "secret1"},
			status:  409,
			message: "Email already taken.",
		},
		{
			name:   "missing fields",
			req:    models.RegisterRequest{Email: "bad"},
			status: 422,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAuthService(newMockAuthRepo(existing), nil, zap.NewNop(), testAuthConfig())
			_, err := svc.Register(context.Background(), tc.req)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.status, appErr.Status)
			if tc.message != "" {
				assert.Equal(t, tc.message, appErr.Message)
			}
			if tc.status == 422 {
				assert.NotEmpty(t, appErr.Fields)
			}
		})
	}
}

func TestAuthServiceRegisterPasswordMismatchField(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), nil, zap.NewNop(), testAuthConfig())
	_, err := svc.Register(context.Background(), models.RegisterRequest{NIP: "1", Name: "A", Email: "a@example.com", Password: "secret1", ConfirmPassword: "other12"})
	require.Error(t, err)
	fields := appErrors.FromError(err).Fields
	require.Len(t, fields, 1)
	assert.Equal(t, "confirmPassword", fields[0].Field)
	assert.Equal(t, "Password and Confirm Password must be same.", fields[0].Message)
}

func TestAuthServiceRefreshToken(t *testing.T) {
	user := &models.User{ID: "u1", NIP: "1987", Email: "user@example.com", Status: models.StatusActive}
	repo := newMockAuthRepo(user)
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "owner", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := NewAuthService(repo, nil, zap.NewNop(), testAuthConfig())

	err := svc.Logout(context.Background(), "token", "intruder", "", "")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.False(t, repo.refreshTokens["token"].Revoked)

	require.NoError(t, svc.Logout(context.Background(), "token", "owner", "", ""))
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), nil, zap.NewNop(), testAuthConfig())
	user := &models.User{ID: "u1", NIP: "1987", Email: "user@example.com"}
	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "1987", claims.NIP)

	other := NewAuthService(newMockAuthRepo(), nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "different", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "Error while verifying token.", appErrors.FromError(err).Message)
}
