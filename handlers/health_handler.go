package handlers

import (
	"net/http"
	"time"

	"github.com/b0b-collective/provider-hub/services/providers"
	"github.com/b0b-collective/provider-hub/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	catalog *providers.Catalog
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(catalog *providers.Catalog, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// Ready means at least one provider credential is configured.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	available := h.catalog.DetectAvailable()
	status := "healthy"
	httpStatus := http.StatusOK
	if len(available) == 0 {
		h.logger.Warn("readiness check failed: no provider configured")
		checks["providers"] = "unhealthy"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["providers"] = "healthy"
	}

	_ = utils.WriteJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
