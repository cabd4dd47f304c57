package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/api/websocket"
	"github.com/minsukang/tft-guide/internal/meta"
)

// MetaHandler triggers and reports on meta deck refreshes.
type MetaHandler struct {
	updater  *meta.Updater
	notifier Notifier
}

// NewMetaHandler creates a new MetaHandler. updater is nil when the
// meta scraper is disabled.
func NewMetaHandler(updater *meta.Updater, notifier Notifier) *MetaHandler {
	return &MetaHandler{updater: updater, notifier: notifier}
}

// UpdateRequest controls a meta refresh.
type UpdateRequest struct {
	// Force refreshes even when the cache is still fresh.
	Force bool `json:"force,omitempty"`
}

// Update fetches the latest meta decks from the configured source.
func (h *MetaHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.updater == nil {
		response.ServiceUnavailable(w, errors.New("meta updates are disabled"))
		return
	}

	var req UpdateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, errors.New("invalid request body"))
			return
		}
	}

	result, err := h.updater.Update(r.Context(), req.Force)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	if result.Success && !result.Skipped {
		notify(h.notifier, websocket.EventMetaUpdated, map[string]int{
			"deck_count": result.DeckCount,
		})
	}
	response.Success(w, result)
}

// LastUpdated reports when and from where meta decks were last fetched.
func (h *MetaHandler) LastUpdated(w http.ResponseWriter, r *http.Request) {
	if h.updater == nil {
		response.ServiceUnavailable(w, errors.New("meta updates are disabled"))
		return
	}

	updated, source, err := h.updater.LastUpdated(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}

	payload := map[string]interface{}{"source": source}
	if updated.IsZero() {
		payload["last_updated"] = nil
	} else {
		payload["last_updated"] = updated.Format(time.RFC3339)
	}
	response.Success(w, payload)
}
