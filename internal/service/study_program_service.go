package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
)

type studyProgramRepository interface {
	List(ctx context.Context) ([]models.StudyProgram, error)
	FindByID(ctx context.Context, id string) (*models.StudyProgram, error)
	Create(ctx context.Context, program *models.StudyProgram) error
	Update(ctx context.Context, program *models.StudyProgram) error
	Delete(ctx context.Context, id string) error
}

func studyProgramCacheKey(id string) string {
	return "study_programs:" + id
}

// StudyProgramService manages study programs. Reads by id go through the cache.
type StudyProgramService struct {
	repo      studyProgramRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudyProgramService constructs the service; cache may be nil.
func NewStudyProgramService(repo studyProgramRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *StudyProgramService {
	return &StudyProgramService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: defaultValidator(validate),
		logger:    defaultLogger(logger),
	}
}

// List returns every study program.
func (s *StudyProgramService) List(ctx context.Context) ([]models.StudyProgram, error) {
	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistence(s.logger, err, "retrieving", "study programs")
	}
	if programs == nil {
		programs = []models.StudyProgram{}
	}
	return programs, nil
}

// Get returns a study program by id.
func (s *StudyProgramService) Get(ctx context.Context, id string) (*models.StudyProgram, error) {
	var cached models.StudyProgram
	if s.cache.Get(ctx, studyProgramCacheKey(id), &cached) {
		return &cached, nil
	}
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "study program", "Study program")
	}
	s.cache.Set(ctx, studyProgramCacheKey(id), program, s.cacheTTL)
	return program, nil
}

// Create adds a study program.
func (s *StudyProgramService) Create(ctx context.Context, req dto.StudyProgramRequest, actor models.Actor) (*models.StudyProgram, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	program := &models.StudyProgram{
		Name:      req.Name,
		Degree:    req.Degree,
		CreatedBy: actor.NIP,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, persistence(s.logger, err, "adding", "study program")
	}
	return program, nil
}

// Update replaces the mutable fields of a study program.
func (s *StudyProgramService) Update(ctx context.Context, id string, req dto.StudyProgramRequest, actor models.Actor) (*models.StudyProgram, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(s.logger, err, "retrieving", "study program", "Study program")
	}
	now := time.Now().UTC()
	program.Name = req.Name
	program.Degree = req.Degree
	program.UpdatedBy = &actor.NIP
	program.UpdatedAt = &now
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, lookup(s.logger, err, "updating", "study program", "Study program")
	}
	s.cache.Invalidate(ctx, studyProgramCacheKey(id))
	return program, nil
}

// Delete removes a study program. Positions referencing it resolve it as missing.
func (s *StudyProgramService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookup(s.logger, err, "deleting", "study program", "Study program")
	}
	s.cache.Invalidate(ctx, studyProgramCacheKey(id))
	return nil
}
