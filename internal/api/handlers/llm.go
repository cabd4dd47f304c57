package handlers

import (
	"net/http"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/guide"
	"github.com/minsukang/tft-guide/internal/llm"
)

// LLMHandler serves model-backed game analysis. The advisor degrades to
// rule-based advice on its own, so analyze never fails on a missing
// model; only building the game context can error.
type LLMHandler struct {
	service *guide.Service
	advisor *llm.Advisor
	client  *llm.Client
}

// NewLLMHandler creates a new LLMHandler. client is nil when the model
// integration is disabled.
func NewLLMHandler(service *guide.Service, advisor *llm.Advisor, client *llm.Client) *LLMHandler {
	return &LLMHandler{service: service, advisor: advisor, client: client}
}

// Analyze runs an analysis of the current game state.
func (h *LLMHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	gc, err := h.service.GameContext()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, h.advisor.AnalyzeGame(r.Context(), gc))
}

// Status reports whether the model endpoint is reachable.
func (h *LLMHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		response.Success(w, map[string]interface{}{
			"enabled":   false,
			"available": false,
		})
		return
	}

	response.Success(w, map[string]interface{}{
		"enabled":   true,
		"available": h.client.IsAvailable(r.Context()),
		"model":     h.client.Model(),
		"base_url":  h.client.BaseURL(),
	})
}
