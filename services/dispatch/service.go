// Package dispatch implements the cross-provider fallback chain: candidates
// are tried strictly in order, each exactly once, and the first success wins.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/b0b-collective/provider-hub/services/providers"
	"go.uber.org/zap"
)

// ErrNoProviders is the underlying error when zero providers are configured.
var ErrNoProviders = errors.New("no provider available: no API key configured")

// ExhaustedError reports that every candidate provider failed (or none was
// available). It carries the last provider-level error; individual failures
// are logged, never propagated.
type ExhaustedError struct {
	// Attempts is the number of outbound calls made
	Attempts int

	// LastErr is the final underlying error
	LastErr error
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	if e.Attempts == 0 {
		return ErrNoProviders.Error()
	}
	return fmt.Sprintf("all %d provider(s) failed: %v", e.Attempts, e.LastErr)
}

// Unwrap implements error unwrapping
func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Service routes a chat request through the ordered fallback chain.
type Service struct {
	catalog  *providers.Catalog
	adapters map[providers.Format]providers.Adapter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService creates a dispatcher. The catalog and adapters are injected at
// construction time; the service holds no other state, so one instance serves
// any number of concurrent requests.
func NewService(
	catalog *providers.Catalog,
	adapters map[providers.Format]providers.Adapter,
	timeout time.Duration,
	logger *zap.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		catalog:  catalog,
		adapters: adapters,
		timeout:  timeout,
		logger:   logger,
	}
}

// Catalog exposes the provider table for diagnostics.
func (s *Service) Catalog() *providers.Catalog {
	return s.catalog
}

// Chat tries the candidate providers sequentially until one succeeds. Each
// provider is called once with a bounded timeout; a failure of any kind
// (non-2xx, timeout, malformed or empty response) advances the chain. Only
// total exhaustion is returned as an error, always an *ExhaustedError.
func (s *Service) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	candidates := s.candidates(req.Provider)
	if len(candidates) == 0 {
		s.logger.Warn("no providers available")
		return nil, &ExhaustedError{Attempts: 0, LastErr: ErrNoProviders}
	}

	var lastErr error
	attempts := 0

	for _, spec := range candidates {
		adapter, ok := s.adapters[spec.Format]
		if !ok {
			s.logger.Error("no adapter for provider format",
				zap.String("provider", spec.ID),
				zap.String("format", string(spec.Format)))
			continue
		}

		apiKey, ok := s.catalog.Credential(spec)
		if !ok {
			// Credential disappeared between detection and dispatch.
			continue
		}

		s.logger.Debug("attempting provider",
			zap.String("provider", spec.ID),
			zap.Int("attempt", attempts+1))

		attempts++
		result, err := s.invoke(ctx, adapter, spec, apiKey, req)
		if err != nil {
			lastErr = err
			s.logger.Warn("provider attempt failed",
				zap.String("provider", spec.ID),
				zap.Error(err))
			continue
		}

		s.logger.Info("chat request served",
			zap.String("provider", result.Provider),
			zap.String("model", result.Model),
			zap.Int("total_tokens", result.Usage.TotalTokens),
			zap.Duration("latency", result.Latency))

		return result, nil
	}

	if lastErr == nil {
		lastErr = ErrNoProviders
	}
	s.logger.Error("all providers exhausted",
		zap.Int("attempts", attempts),
		zap.Error(lastErr))

	return nil, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// invoke performs one bounded provider call.
func (s *Service) invoke(ctx context.Context, adapter providers.Adapter, spec providers.ProviderSpec, apiKey string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return adapter.Complete(callCtx, spec, apiKey, req)
}

// candidates returns the available providers in attempt order: the preferred
// provider first when named and available, then the rest cost ascending.
func (s *Service) candidates(preferred string) []providers.ProviderSpec {
	available := s.catalog.AvailableSpecs()
	if preferred == "" {
		return available
	}

	ordered := make([]providers.ProviderSpec, 0, len(available))
	for _, spec := range available {
		if spec.ID == preferred {
			ordered = append(ordered, spec)
			break
		}
	}
	for _, spec := range available {
		if spec.ID != preferred {
			ordered = append(ordered, spec)
		}
	}
	return ordered
}
