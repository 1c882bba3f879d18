package service

import (
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/validation"
)

func defaultValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return validation.New()
	}
	return v
}

func defaultLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func validate(v *validator.Validate, payload interface{}) error {
	if err := v.Struct(payload); err != nil {
		return appErrors.FromValidation(err)
	}
	return nil
}

// persistence logs the cause and returns the generic 500 for action on entity.
func persistence(logger *zap.Logger, err error, action, entity string) error {
	logger.Error("persistence failure", zap.String("action", action), zap.String("entity", entity), zap.Error(err))
	return appErrors.Internal(err, action, entity)
}

// pqInvalidTextRepresentation is raised when a value cannot be cast to the column type.
const pqInvalidTextRepresentation = "22P02"

// notFound reports whether err means the addressed row does not exist. An id
// the id column cannot represent matches no row either.
func notFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation
}

// lookup maps a missing row to a not-found error naming the entity and any
// other failure to a persistence error.
func lookup(logger *zap.Logger, err error, action, entity, label string) error {
	if notFound(err) {
		return appErrors.NotFound(label)
	}
	return persistence(logger, err, action, entity)
}
