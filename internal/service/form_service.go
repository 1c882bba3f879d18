package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
)

type formRepository interface {
	List(ctx context.Context) ([]models.Form, error)
	FindByID(ctx context.Context, id string) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) error
	Update(ctx context.Context, form *models.Form) error
	Delete(ctx context.Context, id string) error
	ListSettings(ctx context.Context) ([]models.FormSetting, error)
	UpsertSettings(ctx context.Context, settings []models.FormSetting) error
}

// FormService manages form definitions and the global form settings.
type FormService struct {
	repo      formRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFormService constructs a FormService.
func NewFormService(repo formRepository, validate *validator.Validate, logger *zap.Logger) *FormService {
	return &FormService{repo: repo, validator: defaultValidator(validate), logger: defaultLogger(logger)}
}

func (s *FormService) List(ctx context.Context) ([]models.Form, error) {
	forms, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistence(s.logger, err, "retrieving", "forms")
	}
	if forms == nil {
		forms = []models.Form{}
	}
	return forms, nil
}

func (s *FormService) Get(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "form", "Form")
	}
	return form, nil
}

func (s *FormService) Create(ctx context.Context, req dto.CreateFormRequest, actor models.Actor) (*models.Form, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	form := &models.Form{Name: req.Name, CreatedBy: actor.NIP, CreatedAt: time.Now().UTC()}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, persistence(s.logger, err, "adding", "form")
	}
	return form, nil
}

// Update merges the provided fields onto the stored form.
func (s *FormService) Update(ctx context.Context, id string, req dto.UpdateFormRequest, actor models.Actor) (*models.Form, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "form", "Form")
	}
	if req.Name != nil {
		form.Name = *req.Name
	}
	now := time.Now().UTC()
	form.UpdatedBy = &actor.NIP
	form.UpdatedAt = &now
	if err := s.repo.Update(ctx, form); err != nil {
		return nil, lookup(s.logger, err, "updating", "form", "Form")
	}
	return form, nil
}

func (s *FormService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookup(s.logger, err, "deleting", "form", "Form")
	}
	return nil
}

// Settings returns the form toggles. Unset keys read as false.
func (s *FormService) Settings(ctx context.Context) (*models.FormSettings, error) {
	rows, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, persistence(s.logger, err, "retrieving", "form settings")
	}
	settings := &models.FormSettings{}
	for _, row := range rows {
		value, err := strconv.ParseBool(row.Value)
		if err != nil {
			s.logger.Warn("ignoring malformed form setting", zap.String("key", row.Key), zap.String("value", row.Value))
			continue
		}
		switch row.Key {
		case models.FormSettingShowToefl:
			settings.ShowToefl = value
		case models.FormSettingShow360:
			settings.Show360 = value
		}
	}
	return settings, nil
}

// UpdateSettings writes the provided toggles and returns the merged result.
func (s *FormService) UpdateSettings(ctx context.Context, req dto.UpdateFormSettingsRequest, actor models.Actor) (*models.FormSettings, error) {
	var rows []models.FormSetting
	if req.ShowToefl != nil {
		rows = append(rows, models.FormSetting{Key: models.FormSettingShowToefl, Value: strconv.FormatBool(*req.ShowToefl), UpdatedBy: &actor.NIP})
	}
	if req.Show360 != nil {
		rows = append(rows, models.FormSetting{Key: models.FormSettingShow360, Value: strconv.FormatBool(*req.Show360), UpdatedBy: &actor.NIP})
	}
	if err := s.repo.UpsertSettings(ctx, rows); err != nil {
		return nil, persistence(s.logger, err, "updating", "form settings")
	}
	return s.Settings(ctx)
}
