package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/b0b-collective/provider-hub/services/providers"
)

// stubAdapter records attempted provider IDs and returns scripted outcomes.
type stubAdapter struct {
	calls    []string
	results  map[string]*providers.ChatResult
	failures map[string]error
}

func newStubAdapter() *stubAdapter {
	return &stubAdapter{
		results:  make(map[string]*providers.ChatResult),
		failures: make(map[string]error),
	}
}

func (a *stubAdapter) Complete(ctx context.Context, spec providers.ProviderSpec, apiKey string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	a.calls = append(a.calls, spec.ID)
	if err, ok := a.failures[spec.ID]; ok {
		return nil, err
	}
	if result, ok := a.results[spec.ID]; ok {
		return result, nil
	}
	return &providers.ChatResult{Content: "ok", Provider: spec.ID, Model: spec.DefaultModel}, nil
}

func (a *stubAdapter) succeedWith(id, content string) {
	a.results[id] = &providers.ChatResult{Content: content, Provider: id}
}

func (a *stubAdapter) failWith(id string, statusCode int) {
	a.failures[id] = providers.NewProviderError(id, "HTTP_STATUS", "simulated failure", statusCode, nil)
}

func testCatalog(t *testing.T, env map[string]string) *providers.Catalog {
	t.Helper()
	catalog, err := providers.NewCatalog(
		func(key string) (string, bool) { v, ok := env[key]; return v, ok },
		providers.ProviderSpec{ID: "groq", CredentialEnv: "GROQ_API_KEY", DefaultModel: "llama", CostPerMTok: 0.1, Format: providers.FormatOpenAI},
		providers.ProviderSpec{ID: "deepseek", CredentialEnv: "DEEPSEEK_API_KEY", DefaultModel: "deepseek-chat", CostPerMTok: 0.3, Format: providers.FormatOpenAI},
		providers.ProviderSpec{ID: "anthropic", CredentialEnv: "ANTHROPIC_API_KEY", DefaultModel: "claude", CostPerMTok: 15, Format: providers.FormatAnthropic},
	)
	require.NoError(t, err)
	return catalog
}

func newTestService(catalog *providers.Catalog, openaiStub, anthropicStub *stubAdapter) *Service {
	return NewService(catalog, map[providers.Format]providers.Adapter{
		providers.FormatOpenAI:    openaiStub,
		providers.FormatAnthropic: anthropicStub,
	}, time.Second, zap.NewNop())
}

func TestChat_FirstSuccessWins(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1", "DEEPSEEK_API_KEY": "k2"}
	openaiStub := newStubAdapter()
	openaiStub.succeedWith("groq", "from groq")

	svc := newTestService(testCatalog(t, env), openaiStub, newStubAdapter())
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "groq", result.Provider)
	assert.Equal(t, "from groq", result.Content)
	// Once the cheapest provider succeeds nothing else is attempted.
	assert.Equal(t, []string{"groq"}, openaiStub.calls)
}

func TestChat_PreferredProviderTriedFirst(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1", "ANTHROPIC_API_KEY": "k3"}
	openaiStub := newStubAdapter()
	anthropicStub := newStubAdapter()
	anthropicStub.succeedWith("anthropic", "from claude")

	svc := newTestService(testCatalog(t, env), openaiStub, anthropicStub)
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{
		Prompt:   "hi",
		Provider: "anthropic",
	})

	require.NoError(t, err)
	assert.Equal(t, "anthropic", result.Provider)
	// The expensive preferred provider beat the cheap default order.
	assert.Equal(t, []string{"anthropic"}, anthropicStub.calls)
	assert.Empty(t, openaiStub.calls)
}

func TestChat_PreferredFailureFallsBackToCostOrder(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1", "DEEPSEEK_API_KEY": "k2", "ANTHROPIC_API_KEY": "k3"}
	openaiStub := newStubAdapter()
	openaiStub.succeedWith("groq", "from groq")
	anthropicStub := newStubAdapter()
	anthropicStub.failWith("anthropic", 500)

	svc := newTestService(testCatalog(t, env), openaiStub, anthropicStub)
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{
		Prompt:   "hi",
		Provider: "anthropic",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic"}, anthropicStub.calls)
	assert.Equal(t, []string{"groq"}, openaiStub.calls)
	assert.Equal(t, "groq", result.Provider)
}

func TestChat_UnavailablePreferredIsIgnored(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1"}
	openaiStub := newStubAdapter()
	openaiStub.succeedWith("groq", "ok")

	svc := newTestService(testCatalog(t, env), openaiStub, newStubAdapter())
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{
		Prompt:   "hi",
		Provider: "anthropic", // no credential configured
	})

	require.NoError(t, err)
	assert.Equal(t, "groq", result.Provider)
}

func TestChat_RateLimitedProviderFallsThrough(t *testing.T) {
	// DeepSeek answers 429; the chain must advance to Anthropic.
	env := map[string]string{"DEEPSEEK_API_KEY": "k2", "ANTHROPIC_API_KEY": "k3"}
	openaiStub := newStubAdapter()
	openaiStub.failWith("deepseek", 429)
	anthropicStub := newStubAdapter()
	anthropicStub.succeedWith("anthropic", "from claude")

	svc := newTestService(testCatalog(t, env), openaiStub, anthropicStub)
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, []string{"deepseek"}, openaiStub.calls)
	assert.Equal(t, []string{"anthropic"}, anthropicStub.calls)
	assert.Equal(t, "anthropic", result.Provider)
	assert.Equal(t, "from claude", result.Content)
}

func TestChat_NoProvidersConfigured(t *testing.T) {
	openaiStub := newStubAdapter()
	anthropicStub := newStubAdapter()

	svc := newTestService(testCatalog(t, nil), openaiStub, anthropicStub)
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.Nil(t, result)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 0, exhausted.Attempts)
	assert.ErrorIs(t, err, ErrNoProviders)

	// Zero outbound calls were made.
	assert.Empty(t, openaiStub.calls)
	assert.Empty(t, anthropicStub.calls)
}

func TestChat_AllProvidersFail(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1", "DEEPSEEK_API_KEY": "k2"}
	openaiStub := newStubAdapter()
	openaiStub.failWith("groq", 500)
	openaiStub.failWith("deepseek", 503)

	svc := newTestService(testCatalog(t, env), openaiStub, newStubAdapter())
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.Nil(t, result)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)

	// The exhaustion error carries the last underlying failure.
	var provErr *providers.ProviderError
	require.ErrorAs(t, exhausted.LastErr, &provErr)
	assert.Equal(t, "deepseek", provErr.Provider)
	assert.Equal(t, 503, provErr.StatusCode)
}

func TestChat_SingleProviderSingleAttempt(t *testing.T) {
	// Only Groq configured: either it serves the request or the chain is
	// exhausted after exactly one attempt.
	env := map[string]string{"GROQ_API_KEY": "k1"}
	openaiStub := newStubAdapter()
	openaiStub.failWith("groq", 500)

	svc := newTestService(testCatalog(t, env), openaiStub, newStubAdapter())
	_, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
	assert.Equal(t, []string{"groq"}, openaiStub.calls)
}

func TestChat_ProvidersTriedInCostOrder(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1", "DEEPSEEK_API_KEY": "k2", "ANTHROPIC_API_KEY": "k3"}
	openaiStub := newStubAdapter()
	openaiStub.failWith("groq", 500)
	openaiStub.failWith("deepseek", 500)
	anthropicStub := newStubAdapter()
	anthropicStub.succeedWith("anthropic", "finally")

	svc := newTestService(testCatalog(t, env), openaiStub, anthropicStub)
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, []string{"groq", "deepseek"}, openaiStub.calls)
	assert.Equal(t, "anthropic", result.Provider)
}

func TestChat_EmptyContentAdvancesChain(t *testing.T) {
	env := map[string]string{"GROQ_API_KEY": "k1", "DEEPSEEK_API_KEY": "k2"}
	openaiStub := newStubAdapter()
	openaiStub.failures["groq"] = providers.NewProviderError("groq", "EMPTY_RESPONSE", "response carried no content", 200, providers.ErrNoContent)
	openaiStub.succeedWith("deepseek", "real answer")

	svc := newTestService(testCatalog(t, env), openaiStub, newStubAdapter())
	result, err := svc.Chat(context.Background(), &providers.ChatRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "deepseek", result.Provider)
	assert.Equal(t, []string{"groq", "deepseek"}, openaiStub.calls)
}

func TestExhaustedError_Messages(t *testing.T) {
	noProviders := &ExhaustedError{Attempts: 0, LastErr: ErrNoProviders}
	assert.Contains(t, noProviders.Error(), "no provider available")

	allFailed := &ExhaustedError{Attempts: 3, LastErr: errors.New("boom")}
	assert.Contains(t, allFailed.Error(), "all 3 provider(s) failed")
	assert.Contains(t, allFailed.Error(), "boom")
}
