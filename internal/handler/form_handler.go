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

type formService interface {
	List(ctx context.Context) ([]models.Form, error)
	Get(ctx context.Context, id string) (*models.Form, error)
	Create(ctx context.Context, req dto.CreateFormRequest, actor models.Actor) (*models.Form, error)
	Update(ctx context.Context, id string, req dto.UpdateFormRequest, actor models.Actor) (*models.Form, error)
	Delete(ctx context.Context, id string) error
	Settings(ctx context.Context) (*models.FormSettings, error)
	UpdateSettings(ctx context.Context, req dto.UpdateFormSettingsRequest, actor models.Actor) (*models.FormSettings, error)
}

// FormHandler exposes forms and the global form settings.
type FormHandler struct {
	service formService
}

// NewFormHandler constructs the handler.
func NewFormHandler(svc formService) *FormHandler {
	return &FormHandler{service: svc}
}

// List godoc
// @Summary List forms
// @Tags Forms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /forms [get]
func (h *FormHandler) List(c *gin.Context) {
	forms, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, nil)
}

// Get godoc
// @Summary Get form
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/{id} [get]
func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Create godoc
// @Summary Create form
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body dto.CreateFormRequest true "Form"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /forms [post]
func (h *FormHandler) Create(c *gin.Context) {
	var req dto.CreateFormRequest
	if !bindJSON(c, &req) {
		return
	}
	form, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form)
}

// Update godoc
// @Summary Update form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body dto.UpdateFormRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id} [put]
func (h *FormHandler) Update(c *gin.Context) {
	var req dto.UpdateFormRequest
	if !bindJSON(c, &req) {
		return
	}
	form, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Delete godoc
// @Summary Delete form
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id} [delete]
func (h *FormHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c)
}

// Settings godoc
// @Summary Get form settings
// @Tags Forms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /forms/settings [get]
func (h *FormHandler) Settings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateSettings godoc
// @Summary Update form settings
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body dto.UpdateFormSettingsRequest true "Toggles to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/settings [put]
func (h *FormHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateFormSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.service.UpdateSettings(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
