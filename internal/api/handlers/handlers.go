// Package handlers contains the HTTP handlers behind /api. Each handler
// wraps the guide facade or one of the background services; none of them
// touch the engine directly.
package handlers

import (
	"errors"
	"net/http"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/api/websocket"
	"github.com/minsukang/tft-guide/internal/engine"
)

// Notifier pushes events to connected overlay clients. The hub satisfies
// it; handlers tolerate a nil notifier in tests.
type Notifier interface {
	BroadcastEvent(event websocket.Event) bool
}

// writeSessionError maps session mutation failures onto HTTP status
// codes. Everything a mutation can reject is bad client input, except
// a champion the catalog has never heard of.
func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrUnknownUnit) {
		response.NotFound(w, err)
		return
	}
	response.BadRequest(w, err)
}

func notify(n Notifier, eventType string, data interface{}) {
	if n != nil {
		n.BroadcastEvent(websocket.Event{Type: eventType, Data: data})
	}
}
