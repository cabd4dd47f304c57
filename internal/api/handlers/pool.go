package handlers

import (
	"net/http"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/guide"
)

// PoolHandler serves the shared-pool view.
type PoolHandler struct {
	service *guide.Service
}

// NewPoolHandler creates a new PoolHandler.
func NewPoolHandler(service *guide.Service) *PoolHandler {
	return &PoolHandler{service: service}
}

// GetPool returns remaining pool copies for every champion, grouped by
// cost.
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.PoolStatus())
}
