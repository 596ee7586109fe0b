package providers

import (
	"context"
	"time"
)

// Format identifies the wire format a provider speaks.
type Format string

const (
	// FormatOpenAI covers every provider exposing an OpenAI-compatible
	// /chat/completions endpoint (DeepSeek, Groq, Kimi, Together, xAI,
	// OpenRouter, OpenAI itself).
	FormatOpenAI Format = "openai"

	// FormatAnthropic covers the Anthropic /messages endpoint.
	FormatAnthropic Format = "anthropic"
)

// ChatRequest is a unified chat completion request. It is constructed once
// per call and never mutated.
type ChatRequest struct {
	// Prompt is the user turn. Required.
	Prompt string `json:"prompt"`

	// System is an optional system prompt.
	System string `json:"system,omitempty"`

	// Model overrides the provider's default model when set.
	Model string `json:"model,omitempty"`

	// Provider names a preferred provider to try first.
	Provider string `json:"provider,omitempty"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Usage holds token usage counters reported by a provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the outcome of a successful completion. Exactly one result
// is produced per request; results from different providers are never merged.
type ChatResult struct {
	// Content is the response text.
	Content string `json:"content"`

	// Provider is the ID of the provider that served the request.
	Provider string `json:"provider"`

	// Model is the model that produced the completion.
	Model string `json:"model"`

	// Usage statistics as reported by the provider.
	Usage Usage `json:"usage"`

	// Latency of the provider call.
	Latency time.Duration `json:"-"`
}

// Adapter translates between the unified request/result shapes and one
// provider wire format. Implementations are stateless beyond a shared HTTP
// client and perform exactly one outbound call per Complete invocation.
type Adapter interface {
	Complete(ctx context.Context, spec ProviderSpec, apiKey string, req *ChatRequest) (*ChatResult, error)
}
