package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/pkg/validation"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestFromValidationUsesJSONNames(t *testing.T) {
	err := validation.New().Struct(samplePayload{Email: "nope"})
	require.Error(t, err)

	appErr := FromValidation(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	require.Len(t, appErr.Fields, 2)
	assert.Equal(t, "name", appErr.Fields[0].Field)
	assert.Equal(t, "name is required", appErr.Fields[0].Message)
	assert.Equal(t, "email", appErr.Fields[1].Field)
}

func TestFromValidationWrapsOtherErrors(t *testing.T) {
	appErr := FromValidation(stdErrors.New("bad json"))
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Empty(t, appErr.Fields)
}

func TestIsMatchesClonedErrors(t *testing.T) {
	err := NotFound("Position")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, "Position with the given ID was not found.", err.Message)
}

func TestInternalHidesCause(t *testing.T) {
	err := Internal(stdErrors.New("pq: connection refused"), "retrieving", "positions")
	assert.Equal(t, "Something went wrong retrieving positions", err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorContains(t, err.Unwrap(), "connection refused")
}
