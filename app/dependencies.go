package app

import (
	"fmt"
	"net/http"
	"os"

	"github.com/b0b-collective/provider-hub/config"
	"github.com/b0b-collective/provider-hub/services/dispatch"
	"github.com/b0b-collective/provider-hub/services/providers"
	"github.com/b0b-collective/provider-hub/services/providers/anthropic"
	"github.com/b0b-collective/provider-hub/services/providers/openaicompat"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Catalog    *providers.Catalog
	Dispatcher *dispatch.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	catalog, err := providers.DefaultCatalog(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider catalog: %w", err)
	}

	httpClient := &http.Client{}
	adapters := map[providers.Format]providers.Adapter{
		providers.FormatOpenAI:    openaicompat.New(httpClient),
		providers.FormatAnthropic: anthropic.New(httpClient),
	}

	dispatcher := dispatch.NewService(catalog, adapters, cfg.Dispatch.ProviderTimeout, logger)

	available := catalog.DetectAvailable()
	logger.Info("provider catalog initialized",
		zap.Int("registered", len(catalog.Specs())),
		zap.Strings("available", available))
	if len(available) == 0 {
		logger.Warn("no provider credentials configured; chat requests will fail until a key is set")
	}

	return &Dependencies{
		Config:     cfg,
		Logger:     logger,
		Catalog:    catalog,
		Dispatcher: dispatcher,
	}, nil
}
