package handlers

import (
	"net/http"

	"github.com/b0b-collective/provider-hub/services/providers"
	"github.com/b0b-collective/provider-hub/utils"
	"go.uber.org/zap"
)

// StatusHandler serves the provider diagnostics report
type StatusHandler struct {
	catalog *providers.Catalog
	logger  *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(catalog *providers.Catalog, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// HandleStatus handles GET /api/v1/providers
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	report := h.catalog.StatusReport()

	available := 0
	for _, entry := range report {
		if entry.Available {
			available++
		}
	}
	h.logger.Debug("provider status requested",
		zap.Int("registered", len(report)),
		zap.Int("available", available))

	_ = utils.WriteOK(w, report)
}
