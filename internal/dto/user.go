package dto

import "github.com/noah-isme/rekrut-api/internal/models"

// UpdateUserRequest edits a staff account; nil fields are kept.
type UpdateUserRequest struct {
	Name   *string        `json:"name" validate:"omitempty,min=1,max=120"`
	Email  *string        `json:"email" validate:"omitempty,email"`
	Status *models.Status `json:"status" validate:"omitempty,oneof=ACTIVE NONACTIVE"`
}
