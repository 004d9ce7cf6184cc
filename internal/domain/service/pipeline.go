package service

import (
	"context"

	"SlinkyTA/internal/domain/models"
)

// Renderer captures a chart for one asset. The caller owns the returned snapshot and must Close it.
type Renderer interface {
	Render(ctx context.Context, asset models.Asset) (*models.Snapshot, error)
}

// Detector runs pattern recognition on an image and returns pixel-space detections.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]models.Detection, error)
}
