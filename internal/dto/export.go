package dto

import "github.com/noah-isme/rekrut-api/internal/models"

// CreateExportRequest captures POST /submissions/exports.
type CreateExportRequest struct {
	PeriodID   string              `json:"periodId" validate:"required"`
	PositionID *string             `json:"positionId"`
	Status     *models.Stage       `json:"status" validate:"omitempty,gte=0,lte=6"`
	Format     models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
