package api

import (
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/syncengine"
)

// UploadResponse is returned after a successful image upload.
type UploadResponse struct {
	Success  bool           `json:"success"`
	Creature *models.Record `json:"creature,omitempty"`
	Art      *models.Record `json:"art,omitempty"`
	Message  string         `json:"message"`
}

// OpResponse reports the outcome of a delete or import operation.
type OpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LoreDocument wraps the article list in its persisted shape.
type LoreDocument struct {
	Articles []models.Article `json:"articles"`
}

// SignRequest asks for a signed direct-to-store upload payload.
type SignRequest struct {
	Folder       string `json:"folder"`
	ResourceType string `json:"resourceType"`
	PublicID     string `json:"publicId,omitempty"`
}

// SyncResponse wraps a reconciliation report with the merged records.
type SyncResponse struct {
	syncengine.Report
	Creatures []models.Record `json:"creatures"`
}
