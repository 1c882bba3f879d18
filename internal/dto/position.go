package dto

import "github.com/noah-isme/rekrut-api/internal/models"

// PositionRequest is the create and overwrite payload for positions.
type PositionRequest struct {
	Name            string                   `json:"name" validate:"required,max=150"`
	MinimumGraduate models.GraduateLevel     `json:"minimum_graduate" validate:"required,oneof=DIPLOMA SARJANA MAGISTER DOKTOR"`
	StudyPrograms   models.StudyProgramScope `json:"study_programs"`
	MinimumGPA      float64                  `json:"minimum_gpa" validate:"gte=0,lte=4"`
	Details         string                   `json:"details" validate:"max=5000"`
}
