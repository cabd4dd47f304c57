package handlers

import (
	"net/http"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/guide"
)

// StatusHandler serves the polling endpoints the dashboard refreshes on.
type StatusHandler struct {
	service *guide.Service
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(service *guide.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// GetStatus returns the session state plus the top recommendations.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, status)
}

// Recommend recomputes and returns the full ranked deck list.
func (h *StatusHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.Recommend()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{
		"recommendations": recs,
		"count":           len(recs),
	})
}
