package dto

import "github.com/noah-isme/rekrut-api/internal/models"

// StudyProgramRequest is the create and replace payload for study programs.
type StudyProgramRequest struct {
	Name   string               `json:"name" validate:"required,max=150"`
	Degree models.GraduateLevel `json:"degree" validate:"required,oneof=DIPLOMA SARJANA MAGISTER DOKTOR"`
}
