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

type timelineService interface {
	List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error)
	Get(ctx context.Context, id string) (*models.Timeline, error)
	Create(ctx context.Context, req dto.CreateTimelineRequest, actor models.Actor) (*models.Timeline, error)
	Update(ctx context.Context, id string, req dto.UpdateTimelineRequest, actor models.Actor) (*models.Timeline, error)
	ToggleStatus(ctx context.Context, id string, actor models.Actor) (models.Status, error)
	Delete(ctx context.Context, id string) error
}

// TimelineHandler exposes recruitment period endpoints.
type TimelineHandler struct {
	service timelineService
}

// NewTimelineHandler constructs the handler.
func NewTimelineHandler(svc timelineService) *TimelineHandler {
	return &TimelineHandler{service: svc}
}

// List godoc
// @Summary List timelines
// @Tags Timelines
// @Produce json
// @Param status query string false "ACTIVE or NONACTIVE"
// @Param type query string false "STAFF, DOSEN or PROFESSIONAL"
// @Success 200 {object} response.Envelope
// @Router /timelines [get]
func (h *TimelineHandler) List(c *gin.Context) {
	filter := models.TimelineFilter{Type: models.TimelineType(c.Query("type"))}
	if status := models.Status(c.Query("status")); status.Valid() {
		filter.Status = &status
	}
	timelines, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timelines, nil)
}

// Get godoc
// @Summary Get timeline
// @Tags Timelines
// @Produce json
// @Param id path string true "Timeline ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timelines/{id} [get]
func (h *TimelineHandler) Get(c *gin.Context) {
	timeline, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeline, nil)
}

// Create godoc
// @Summary Open timeline
// @Tags Timelines
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimelineRequest true "Timeline"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /timelines [post]
func (h *TimelineHandler) Create(c *gin.Context) {
	var req dto.CreateTimelineRequest
	if !bindJSON(c, &req) {
		return
	}
	timeline, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timeline)
}

// Update godoc
// @Summary Update timeline
// @Description Absent fields keep their stored value.
// @Tags Timelines
// @Accept json
// @Produce json
// @Param id path string true "Timeline ID"
// @Param payload body dto.UpdateTimelineRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /timelines/{id} [put]
func (h *TimelineHandler) Update(c *gin.Context) {
	var req dto.UpdateTimelineRequest
	if !bindJSON(c, &req) {
		return
	}
	timeline, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timeline, nil)
}

// ToggleStatus godoc
// @Summary Toggle timeline status
// @Tags Timelines
// @Produce json
// @Param id path string true "Timeline ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /timelines/edit_status/{id} [put]
func (h *TimelineHandler) ToggleStatus(c *gin.Context) {
	id := c.Param("id")
	status, err := h.service.ToggleStatus(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statusChange{ID: id, Status: status}, nil)
}

// Delete godoc
// @Summary Delete timeline
// @Tags Timelines
// @Produce json
// @Param id path string true "Timeline ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /timelines/{id} [delete]
func (h *TimelineHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c)
}
