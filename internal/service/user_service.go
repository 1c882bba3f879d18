package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, validator: defaultValidator(validate), logger: defaultLogger(logger)}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, persistence(s.logger, err, "retrieving", "users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "user", "User")
	}
	return user, nil
}

// Update merges the provided fields onto the user.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor models.Actor) (*models.User, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "user", "User")
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"name": user.Name, "email": user.Email, "status": user.Status})

	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, msgEmailTaken)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, persistence(s.logger, err, "updating", "user")
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	return s.save(ctx, user, oldPayload, actor)
}

// ToggleStatus flips a user between ACTIVE and NONACTIVE.
func (s *UserService) ToggleStatus(ctx context.Context, id string, actor models.Actor) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "user", "User")
	}
	if user.ID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change your own status")
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"status": user.Status})
	user.Status = user.Status.Toggle()
	return s.save(ctx, user, oldPayload, actor)
}

func (s *UserService) save(ctx context.Context, user *models.User, oldPayload []byte, actor models.Actor) (*models.User, error) {
	user.UpdatedBy = &actor.NIP
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, lookup(s.logger, err, "updating", "user", "User")
	}
	newPayload, _ := json.Marshal(map[string]interface{}{"name": user.Name, "email": user.Email, "status": user.Status})
	s.audit(ctx, models.AuditActionUserUpdate, user.ID, oldPayload, newPayload, actor)
	return user, nil
}

// Delete removes a user and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if id == actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookup(s.logger, err, "deleting", "user", "User")
	}
	s.audit(ctx, models.AuditActionUserDelete, id, nil, []byte(`{"status":"deleted"}`), actor)
	return nil
}

func (s *UserService) audit(ctx context.Context, action, resourceID string, oldValues, newValues []byte, actor models.Actor) {
	var userID *string
	if actor.UserID != "" {
		userID = &actor.UserID
	}
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}
