package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/middleware"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/response"
)

type submissionService interface {
	Create(ctx context.Context, req dto.CreateSubmissionRequest) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	UpdateStatus(ctx context.Context, req dto.BulkStatusRequest, actor models.Actor) (*models.BulkStatusResult, error)
	UpdateScore(ctx context.Context, id string, req dto.UpdateScoreRequest) (*dto.ScoreResponse, error)
	SetPassed(ctx context.Context, req dto.AgreementRequest, actor models.Actor) (*models.Submission, error)
	SetDetermination(ctx context.Context, req dto.DeterminationRequest, actor models.Actor) (*models.Submission, error)
}

// SubmissionHandler exposes applicant intake and the staff review workflow.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(svc submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Create godoc
// @Summary Submit application
// @Description Public intake. The period must be active and open today.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary List submissions
// @Description filter/filterValue select one field (default status); the explicit parameters combine with it.
// @Tags Submissions
// @Produce json
// @Param filter query string false "status, positionId, periodId, passed or determination"
// @Param filterValue query string false "Value for filter"
// @Param periodId query string false "Period ID"
// @Param positionId query string false "Position ID"
// @Param status query int false "Pipeline stage 0-6"
// @Param passed query int false "Passed decision 0-2"
// @Param determination query int false "Determination decision 0-2"
// @Param search query string false "Name or email"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		PeriodID:   c.Query("periodId"),
		PositionID: c.Query("positionId"),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	for _, key := range []string{"status", "passed", "determination"} {
		if err := filter.ApplyLegacy(key, c.Query(key)); err != nil {
			response.Error(c, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: key, Message: err.Error()}))
			return
		}
	}
	if err := filter.ApplyLegacy(c.Query("filter"), c.Query("filterValue")); err != nil {
		response.Error(c, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "filterValue", Message: err.Error()}))
		return
	}

	submissions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, pagination)
}

// Get godoc
// @Summary Get submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// UpdateStatus godoc
// @Summary Move submissions to a stage
// @Description Each id is updated independently; ids that fail are listed in failed.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.BulkStatusRequest true "Applicants and target stage"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions-update [put]
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	var req dto.BulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.UpdateStatus(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateScore godoc
// @Summary Merge sub-scores
// @Description Omitted sub-scores keep their stored value.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.UpdateScoreRequest true "Score patch"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/score [put]
func (h *SubmissionHandler) UpdateScore(c *gin.Context) {
	var req dto.UpdateScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	score, err := h.service.UpdateScore(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// SetPassed godoc
// @Summary Record the passed decision
// @Description Accepting is refused once the position quota for the period is met.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.AgreementRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions-update/agreement [put]
func (h *SubmissionHandler) SetPassed(c *gin.Context) {
	var req dto.AgreementRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.SetPassed(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// SetDetermination godoc
// @Summary Record the determination decision
// @Description Accepting is refused once the position quota for the period is met.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.DeterminationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions-update/determination [put]
func (h *SubmissionHandler) SetDetermination(c *gin.Context) {
	var req dto.DeterminationRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.SetDetermination(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
