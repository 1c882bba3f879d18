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

type positionService interface {
	List(ctx context.Context, filter models.PositionFilter) ([]models.ResolvedPosition, error)
	Get(ctx context.Context, id string) (*models.ResolvedPosition, error)
	Create(ctx context.Context, req dto.PositionRequest, actor models.Actor) (*models.Position, error)
	Update(ctx context.Context, id string, req dto.PositionRequest, actor models.Actor) (*models.Position, error)
	ToggleStatus(ctx context.Context, id string, actor models.Actor) (models.Status, error)
	Delete(ctx context.Context, id string) error
}

// PositionHandler exposes position endpoints. Reads return study programs resolved.
type PositionHandler struct {
	service positionService
}

// NewPositionHandler constructs the handler.
func NewPositionHandler(svc positionService) *PositionHandler {
	return &PositionHandler{service: svc}
}

// statusChange is the body of a status toggle response.
type statusChange struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

// List godoc
// @Summary List positions
// @Tags Positions
// @Produce json
// @Param status query string false "ACTIVE or NONACTIVE"
// @Success 200 {object} response.Envelope
// @Router /positions [get]
func (h *PositionHandler) List(c *gin.Context) {
	var filter models.PositionFilter
	if status := models.Status(c.Query("status")); status.Valid() {
		filter.Status = &status
	}
	positions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, positions, nil)
}

// Get godoc
// @Summary Get position
// @Tags Positions
// @Produce json
// @Param id path string true "Position ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /positions/{id} [get]
func (h *PositionHandler) Get(c *gin.Context) {
	position, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, position, nil)
}

// Create godoc
// @Summary Create position
// @Tags Positions
// @Accept json
// @Produce json
// @Param payload body dto.PositionRequest true "Position"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /positions [post]
func (h *PositionHandler) Create(c *gin.Context) {
	var req dto.PositionRequest
	if !bindJSON(c, &req) {
		return
	}
	position, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, position)
}

// Update godoc
// @Summary Overwrite position
// @Tags Positions
// @Accept json
// @Produce json
// @Param id path string true "Position ID"
// @Param payload body dto.PositionRequest true "Position"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /positions/{id} [put]
func (h *PositionHandler) Update(c *gin.Context) {
	var req dto.PositionRequest
	if !bindJSON(c, &req) {
		return
	}
	position, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, position, nil)
}

// ToggleStatus godoc
// @Summary Toggle position status
// @Tags Positions
// @Produce json
// @Param id path string true "Position ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /positions/edit_status/{id} [put]
func (h *PositionHandler) ToggleStatus(c *gin.Context) {
	id := c.Param("id")
	status, err := h.service.ToggleStatus(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statusChange{ID: id, Status: status}, nil)
}

// Delete godoc
// @Summary Delete position
// @Tags Positions
// @Produce json
// @Param id path string true "Position ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /positions/{id} [delete]
func (h *PositionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c)
}
