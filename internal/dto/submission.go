package dto

import "github.com/noah-isme/rekrut-api/internal/models"

// CreateSubmissionRequest is the public application payload.
type CreateSubmissionRequest struct {
	FullName       string      `json:"fullName" validate:"required,max=150"`
	Email          string      `json:"email" validate:"required,email"`
	Address        string      `json:"address" validate:"required,max=500"`
	OriginFrom     string      `json:"originFrom" validate:"required,max=150"`
	DateOfBirth    models.Date `json:"dateOfBirth"`
	Gender         string      `json:"gender" validate:"required,max=20"`
	PhoneNumber    string      `json:"phoneNumber" validate:"required,max=30"`
	LastEducation  string      `json:"lastEducation" validate:"required,max=150"`
	PositionID     string      `json:"positionId" validate:"required"`
	PeriodID       string      `json:"periodId" validate:"required"`
	ToeflScore     *float64    `json:"toeflScore" validate:"omitempty,gte=0,lte=990"`
	ToeflFile      *string     `json:"toeflFile"`
	Score360       *float64    `json:"_360Score" validate:"omitempty,gte=0"`
	File360        *string     `json:"_360File"`
	CVFile         *string     `json:"cvFile"`
	ProfilePicture *string     `json:"profilePicture"`
}

// BulkStatusRequest moves many submissions to one pipeline stage.
type BulkStatusRequest struct {
	Applicants    []string      `json:"applicants" validate:"required,min=1,max=500,dive,required"`
	UpdatedStatus *models.Stage `json:"updatedStatus" validate:"required,gte=0,lte=6"`
}

// UpdateScoreRequest patches sub-scores; omitted sub-scores keep their value.
type UpdateScoreRequest struct {
	Score *models.ScorePatch `json:"score" validate:"required"`
}

// AgreementRequest sets the passed decision of one submission.
type AgreementRequest struct {
	ID     string           `json:"id" validate:"required"`
	Passed *models.Decision `json:"passed" validate:"required,gte=0,lte=2"`
}

// DeterminationRequest sets the determination decision of one submission.
type DeterminationRequest struct {
	ID            string           `json:"id" validate:"required"`
	Determination *models.Decision `json:"determination" validate:"required,gte=0,lte=2"`
}

// ScoreResponse is returned after a score merge.
type ScoreResponse struct {
	ID    string       `json:"id"`
	Score models.Score `json:"score"`
}
