package dto

import "github.com/noah-isme/content-console/internal/models"

// ExportRequest queues an export of a filtered content list.
type ExportRequest struct {
	ContentType models.ContentType  `json:"content_type" validate:"required"`
	Format      models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	BatchID     *int64              `json:"batch_id,omitempty" validate:"omitempty,gt=0"`
	Search      string              `json:"search,omitempty"`
	Active      *bool               `json:"active,omitempty"`
}

// ExportJobResponse acknowledges a queued export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse reports export progress and the download link when ready.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
