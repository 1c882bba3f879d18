package dto

import "github.com/noah-isme/rekrut-api/internal/models"

// CreateTimelineRequest opens a new recruitment period.
type CreateTimelineRequest struct {
	Title     string                 `json:"title" validate:"required,max=200"`
	Type      models.TimelineType    `json:"type" validate:"required,oneof=STAFF DOSEN PROFESSIONAL"`
	StartDate models.Date            `json:"startDate"`
	EndDate   models.Date            `json:"endDate"`
	Positions []models.PositionQuota `json:"positions" validate:"required,min=1,dive"`
	Forms     []string               `json:"forms" validate:"omitempty,dive,required"`
}

// UpdateTimelineRequest merges onto an existing period; nil fields are kept.
type UpdateTimelineRequest struct {
	Title     *string                `json:"title" validate:"omitempty,min=1,max=200"`
	Type      *models.TimelineType   `json:"type" validate:"omitempty,oneof=STAFF DOSEN PROFESSIONAL"`
	StartDate *models.Date           `json:"startDate"`
	EndDate   *models.Date           `json:"endDate"`
	Positions []models.PositionQuota `json:"positions" validate:"omitempty,min=1,dive"`
	Forms     []string               `json:"forms" validate:"omitempty,dive,required"`
}
