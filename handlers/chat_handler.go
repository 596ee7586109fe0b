package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/b0b-collective/provider-hub/middleware"
	"github.com/b0b-collective/provider-hub/services/dispatch"
	"github.com/b0b-collective/provider-hub/services/providers"
	"github.com/b0b-collective/provider-hub/utils"
	"go.uber.org/zap"
)

// Chatter dispatches a chat request through the provider fallback chain.
type Chatter interface {
	Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error)
}

// MaxPromptLength bounds the inbound prompt. Oversized prompts are rejected
// before any provider call is made.
const MaxPromptLength = 10000

// ChatRequestBody is the inbound JSON contract for POST /api/v1/chat
type ChatRequestBody struct {
	Prompt      string  `json:"prompt" validate:"required,max=10000"`
	System      string  `json:"system,omitempty"`
	Model       string  `json:"model,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	Temperature float64 `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens,omitempty" validate:"gte=0"`
}

// ChatResponseBody is the outbound JSON contract. Exhaustion is reported in
// the same envelope with success=false, never as an unhandled fault.
type ChatResponseBody struct {
	Success  bool             `json:"success"`
	Content  string           `json:"content,omitempty"`
	Provider string           `json:"provider,omitempty"`
	Model    string           `json:"model,omitempty"`
	Usage    *providers.Usage `json:"usage,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ChatHandler handles chat completion requests
type ChatHandler struct {
	dispatcher Chatter
	logger     *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(dispatcher Chatter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleChat handles POST /api/v1/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var body ChatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(body); err != nil {
		details := make(map[string]interface{})
		for field, msg := range utils.GetValidationFields(err) {
			details[field] = msg
		}
		_ = utils.WriteBadRequest(w, "invalid chat request", details)
		return
	}

	req := &providers.ChatRequest{
		Prompt:      body.Prompt,
		System:      body.System,
		Model:       body.Model,
		Provider:    body.Provider,
		Temperature: body.Temperature,
		MaxTokens:   body.MaxTokens,
	}

	result, err := h.dispatcher.Chat(r.Context(), req)
	if err != nil {
		h.writeDispatchError(w, requestID, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, ChatResponseBody{
		Success:  true,
		Content:  result.Content,
		Provider: result.Provider,
		Model:    result.Model,
		Usage:    &result.Usage,
	})
}

// writeDispatchError maps dispatcher errors to the response envelope:
// 503 when no provider is configured, 502 when every attempt failed.
func (h *ChatHandler) writeDispatchError(w http.ResponseWriter, requestID string, err error) {
	var exhausted *dispatch.ExhaustedError
	if errors.As(err, &exhausted) {
		status := http.StatusBadGateway
		if exhausted.Attempts == 0 {
			status = http.StatusServiceUnavailable
		}
		h.logger.Warn("chat request exhausted all providers",
			zap.String("request_id", requestID),
			zap.Int("attempts", exhausted.Attempts),
			zap.Error(err))
		_ = utils.WriteJSON(w, status, ChatResponseBody{
			Success: false,
			Error:   exhausted.Error(),
		})
		return
	}

	h.logger.Error("chat dispatch failed",
		zap.String("request_id", requestID),
		zap.Error(err))
	_ = utils.WriteInternalServerError(w, "chat dispatch failed")
}
