package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type positionRepository interface {
	List(ctx context.Context, filter models.PositionFilter) ([]models.Position, error)
	FindByID(ctx context.Context, id string) (*models.Position, error)
	Create(ctx context.Context, position *models.Position) error
	Replace(ctx context.Context, position *models.Position) error
	ToggleStatus(ctx context.Context, id, actor string, at time.Time) (models.Status, error)
	Delete(ctx context.Context, id string) error
}

type studyProgramLookup interface {
	Get(ctx context.Context, id string) (*models.StudyProgram, error)
}

const resolveConcurrency = 8

// PositionService manages positions and expands their study program references.
type PositionService struct {
	repo      positionRepository
	programs  studyProgramLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPositionService constructs a PositionService.
func NewPositionService(repo positionRepository, programs studyProgramLookup, validate *validator.Validate, logger *zap.Logger) *PositionService {
	return &PositionService{repo: repo, programs: programs, validator: defaultValidator(validate), logger: defaultLogger(logger)}
}

// List returns resolved positions, newest first.
func (s *PositionService) List(ctx context.Context, filter models.PositionFilter) ([]models.ResolvedPosition, error) {
	positions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, persistence(s.logger, err, "retrieving", "positions")
	}
	return s.resolve(ctx, positions)
}

// Get returns one resolved position.
func (s *PositionService) Get(ctx context.Context, id string) (*models.ResolvedPosition, error) {
	position, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "position", "Position")
	}
	resolved, err := s.resolve(ctx, []models.Position{*position})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

// Create stores a new ACTIVE position.
func (s *PositionService) Create(ctx context.Context, req dto.PositionRequest, actor models.Actor) (*models.Position, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	position := &models.Position{
		Name:            req.Name,
		MinimumGraduate: req.MinimumGraduate,
		StudyPrograms:   req.StudyPrograms,
		MinimumGPA:      req.MinimumGPA,
		Details:         req.Details,
		Status:          models.StatusActive,
		CreatedBy:       actor.NIP,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, position); err != nil {
		return nil, persistence(s.logger, err, "adding", "position")
	}
	return position, nil
}

// Update overwrites every mutable field. Status and creation audit are preserved.
func (s *PositionService) Update(ctx context.Context, id string, req dto.PositionRequest, actor models.Actor) (*models.Position, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	position, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "position", "Position")
	}
	now := time.Now().UTC()
	position.Name = req.Name
	position.MinimumGraduate = req.MinimumGraduate
	position.StudyPrograms = req.StudyPrograms
	position.MinimumGPA = req.MinimumGPA
	position.Details = req.Details
	position.UpdatedBy = &actor.NIP
	position.UpdatedAt = &now
	if err := s.repo.Replace(ctx, position); err != nil {
		return nil, lookup(s.logger, err, "updating", "position", "Position")
	}
	return position, nil
}

// ToggleStatus flips ACTIVE and NONACTIVE and returns the new status.
func (s *PositionService) ToggleStatus(ctx context.Context, id string, actor models.Actor) (models.Status, error) {
	status, err := s.repo.ToggleStatus(ctx, id, actor.NIP, time.Now().UTC())
	if err != nil {
		return "", lookup(s.logger, err, "updating", "position", "Position")
	}
	return status, nil
}

// Delete removes a position.
func (s *PositionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookup(s.logger, err, "deleting", "position", "Position")
	}
	return nil
}

func (s *PositionService) validate(ctx context.Context, req dto.PositionRequest) error {
	if err := validate(s.validator, req); err != nil {
		return err
	}
	if req.StudyPrograms.Empty() {
		return appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{
			Field:   "study_programs",
			Message: `study_programs must be "ALL" or a non-empty list of ids`,
		})
	}
	var fields []appErrors.FieldError
	for _, id := range req.StudyPrograms.IDs() {
		if _, err := s.programs.Get(ctx, id); err != nil {
			if !errors.Is(err, appErrors.ErrNotFound) {
				return err
			}
			fields = append(fields, appErrors.FieldError{
				Field:   "study_programs",
				Message: fmt.Sprintf("study program %s does not exist", id),
			})
		}
	}
	if len(fields) > 0 {
		return appErrors.Validation(appErrors.ErrValidation.Message, fields...)
	}
	return nil
}

// resolve expands every referenced study program concurrently. Entries keep the
// input order; ids without a study program become missing entries.
func (s *PositionService) resolve(ctx context.Context, positions []models.Position) ([]models.ResolvedPosition, error) {
	out := make([]models.ResolvedPosition, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)

	for i := range positions {
		out[i].Position = positions[i]
		scope := positions[i].StudyPrograms
		if scope.IsAny() {
			out[i].StudyPrograms = models.ResolvedScope{Any: true}
			continue
		}
		ids := scope.IDs()
		refs := make([]models.StudyProgramRef, len(ids))
		out[i].StudyPrograms = models.ResolvedScope{Programs: refs}
		for j, id := range ids {
			j, id := j, id
			g.Go(func() error {
				ref, err := s.resolveOne(gctx, id)
				if err != nil {
					return err
				}
				refs[j] = ref
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, persistence(s.logger, err, "retrieving", "study programs")
	}
	return out, nil
}

func (s *PositionService) resolveOne(ctx context.Context, id string) (models.StudyProgramRef, error) {
	program, err := s.programs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return models.StudyProgramRef{ID: id, Missing: true}, nil
		}
		return models.StudyProgramRef{}, err
	}
	name := program.Name
	degree := program.Degree
	return models.StudyProgramRef{ID: program.ID, Name: &name, Degree: &degree}, nil
}
