// Package anthropic implements the chat adapter for the Anthropic Messages
// API, which differs from the OpenAI-compatible format in its endpoint path,
// auth headers, system-prompt placement, and response shape.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/b0b-collective/provider-hub/services/providers"
)

const apiVersion = "2023-06-01"

// Anthropic requires max_tokens on every request.
const defaultMaxTokens = 1024

// Adapter posts unified requests to {baseURL}/v1/messages.
type Adapter struct {
	httpClient *http.Client
}

// New creates an adapter. A nil client falls back to a default one.
func New(client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	return &Adapter{httpClient: client}
}

// Complete performs a single messages call. It never retries.
func (a *Adapter) Complete(ctx context.Context, spec providers.ProviderSpec, apiKey string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	startTime := time.Now()

	body, err := json.Marshal(buildRequest(spec, req))
	if err != nil {
		return nil, providers.NewProviderError(spec.ID, "MARSHAL_ERROR", "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(spec.ID, "REQUEST_ERROR", "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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

	var msgResp messagesResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return nil, providers.NewProviderError(spec.ID, "UNMARSHAL_ERROR", "failed to unmarshal response", httpResp.StatusCode, err)
	}

	return convertResponse(spec, &msgResp, time.Since(startTime))
}

func buildRequest(spec providers.ProviderSpec, req *providers.ChatRequest) *messagesRequest {
	model := req.Model
	if model == "" {
		model = spec.DefaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	out := &messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []message{{Role: "user", Content: req.Prompt}},
	}
	if req.Temperature > 0 {
		out.Temperature = &req.Temperature
	}

	return out
}

func convertResponse(spec providers.ProviderSpec, resp *messagesResponse, latency time.Duration) (*providers.ChatResult, error) {
	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, providers.NewProviderError(spec.ID, "EMPTY_RESPONSE", "response carried no content", http.StatusOK, providers.ErrNoContent)
	}

	model := resp.Model
	if model == "" {
		model = spec.DefaultModel
	}

	return &providers.ChatResult{
		Content:  text,
		Provider: spec.ID,
		Model:    model,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
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

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
