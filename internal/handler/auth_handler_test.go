package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type authServiceMock struct {
	loginReq models.LoginRequest
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "NIP Already taken.")
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *authServiceMock) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2"}, nil
}

func (m *authServiceMock) Logout(ctx context.Context, refreshToken, userID, ip, userAgent string) error {
	return nil
}

func (m *authServiceMock) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, NIP: "100"}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc)

	c, w := newTestContext(http.MethodPost, "/login", []byte(`{"email":"a@b.c","password":"secret"}`))
	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "access", decodeEnvelope(t, w)["data"].(map[string]interface{})["token"])
	assert.Equal(t, "a@b.c", svc.loginReq.Email)

	c, w = newTestContext(http.MethodPost, "/login", []byte(`{"email":"a@b.c","password":"nope"}`))
	handler.Login(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Wrong credentials.", decodeEnvelope(t, w)["message"])
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodPost, "/register", []byte(`{"nip":"1","name":"A","email":"a@b.c","password":"secret1","confirmPassword":"secret1"}`))
	handler.Register(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NIP Already taken.", decodeEnvelope(t, w)["message"])
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", decodeEnvelope(t, w)["data"].(map[string]interface{})["id"])
}
