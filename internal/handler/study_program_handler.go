package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/middleware"
	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/pkg/response"
)

type studyProgramService interface {
	List(ctx context.Context) ([]models.StudyProgram, error)
	Get(ctx context.Context, id string) (*models.StudyProgram, error)
	Create(ctx context.Context, req dto.StudyProgramRequest, actor models.Actor) (*models.StudyProgram, error)
	Update(ctx context.Context, id string, req dto.StudyProgramRequest, actor models.Actor) (*models.StudyProgram, error)
	Delete(ctx context.Context, id string) error
}

// StudyProgramHandler exposes study program CRUD.
type StudyProgramHandler struct {
	service studyProgramService
}

// NewStudyProgramHandler constructs the handler.
func NewStudyProgramHandler(svc studyProgramService) *StudyProgramHandler {
	return &StudyProgramHandler{service: svc}
}

// List godoc
// @Summary List study programs
// @Tags StudyPrograms
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /study_programs [get]
func (h *StudyProgramHandler) List(c *gin.Context) {
	programs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get study program
// @Tags StudyPrograms
// @Produce json
// @Param id path string true "Study program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /study_programs/{id} [get]
func (h *StudyProgramHandler) Get(c *gin.Context) {
	program, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create study program
// @Tags StudyPrograms
// @Accept json
// @Produce json
// @Param payload body dto.StudyProgramRequest true "Study program"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /study_programs [post]
func (h *StudyProgramHandler) Create(c *gin.Context) {
	var req dto.StudyProgramRequest
	if !bindJSON(c, &req) {
		return
	}
	program, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Replace study program
// @Tags StudyPrograms
// @Accept json
// @Produce json
// @Param id path string true "Study program ID"
// @Param payload body dto.StudyProgramRequest true "Study program"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /study_programs/{id} [put]
func (h *StudyProgramHandler) Update(c *gin.Context) {
	var req dto.StudyProgramRequest
	if !bindJSON(c, &req) {
		return
	}
	program, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete study program
// @Tags StudyPrograms
// @Produce json
// @Param id path string true "Study program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /study_programs/{id} [delete]
func (h *StudyProgramHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c)
}
