package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/logger"
)

type tokenValidatorStub map[string]*models.JWTClaims

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Error while verifying token.")
}

func jwtRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	validator := tokenValidatorStub{"good": {UserID: "u1", NIP: "100"}}
	router.GET("/private", JWT(validator), func(c *gin.Context) {
		actor := Actor(c)
		c.JSON(http.StatusOK, gin.H{"nip": actor.NIP, "uid": actor.UserID, "log": c.GetString(logger.ActorKey)})
	})
	return router
}

func TestJWTRejections(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Unauthorized"},
		{"wrong scheme", "Basic abc", "Error while verifying token."},
		{"empty token", "Bearer ", "Error while verifying token."},
		{"invalid token", "Bearer bad", "Error while verifying token."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			jwtRouter().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestJWTAttachesActor(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer good")
	jwtRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "100", body["nip"])
	assert.Equal(t, "u1", body["uid"])
	assert.Equal(t, "100", body["log"])
}
