package handlers

import (
	"net/http"
	"time"

	"github.com/minsukang/tft-guide/internal/api/response"
)

// SystemHandler serves liveness and build info.
type SystemHandler struct {
	version string
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

// Health reports that the server is up.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().Format(time.RFC3339),
	})
}
