// Package openaicompat implements the chat adapter for every provider that
// speaks the OpenAI chat-completions wire format (DeepSeek, Groq, Kimi,
// Together, xAI, OpenRouter, OpenAI).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/b0b-collective/provider-hub/services/providers"
)

// Adapter posts unified requests to {baseURL}/chat/completions.
type Adapter struct {
	httpClient *http.Client
}

// New creates an adapter. A nil client falls back to a default one; the
// per-call deadline is enforced by the caller's context, not the client.
func New(client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	return &Adapter{httpClient: client}
}

// Complete performs a single chat completion call. It never retries.
func (a *Adapter) Complete(ctx context.Context, spec providers.ProviderSpec, apiKey string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	startTime := time.Now()

	body, err := json.Marshal(buildRequest(spec, req))
	if err != nil {
		return nil, providers.NewProviderError(spec.ID, "MARSHAL_ERROR", "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(spec.ID, "REQUEST_ERROR", "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(spec.ID, "HTTP_ERROR", "request failed", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(spec.ID, "READ_ERROR", "failed to read response", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(spec.ID, httpResp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, providers.NewProviderError(spec.ID, "UNMARSHAL_ERROR", "failed to unmarshal response", httpResp.StatusCode, err)
	}

	return convertResponse(spec, &chatResp, time.Since(startTime))
}

func buildRequest(spec providers.ProviderSpec, req *providers.ChatRequest) *chatRequest {
	model := req.Model
	if model == "" {
		model = spec.DefaultModel
	}

	out := &chatRequest{Model: model}
	if req.System != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.System})
	}
	out.Messages = append(out.Messages, chatMessage{Role: "user", Content: req.Prompt})

	if req.MaxTokens > 0 {
		out.MaxTokens = &req.MaxTokens
	}
	if req.Temperature > 0 {
		out.Temperature = &req.Temperature
	}

	return out
}

func convertResponse(spec providers.ProviderSpec, resp *chatResponse, latency time.Duration) (*providers.ChatResult, error) {
	// A 2xx with no text is a provider failure: the fallback chain moves on.
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, providers.NewProviderError(spec.ID, "EMPTY_RESPONSE", "response carried no content", http.StatusOK, providers.ErrNoContent)
	}

	model := resp.Model
	if model == "" {
		model = spec.DefaultModel
	}

	return &providers.ChatResult{
		Content:  resp.Choices[0].Message.Content,
		Provider: spec.ID,
		Model:    model,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Latency: latency,
	}, nil
}

func handleErrorResponse(providerID string, statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(providerID, "HTTP_STATUS", string(body), statusCode, nil)
	}

	return providers.NewProviderError(providerID, errResp.Error.Type, errResp.Error.Message, statusCode, nil)
}

// Wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
