package handlers

import (
	"context"

	"github.com/maruel/mdpages/internal/server/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	mode    string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version, mode string) *HealthHandler {
	return &HealthHandler{
		version: version,
		mode:    mode,
	}
}

// Health handles health check requests.
func (h *HealthHandler) Health(ctx context.Context, req *dto.HealthRequest) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Mode:    h.mode,
	}, nil
}
