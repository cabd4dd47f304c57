package handlers

import (
	"net/http"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/guide"
)

// ChampionsHandler serves the static champion catalog.
type ChampionsHandler struct {
	service *guide.Service
}

// NewChampionsHandler creates a new ChampionsHandler.
func NewChampionsHandler(service *guide.Service) *ChampionsHandler {
	return &ChampionsHandler{service: service}
}

// List returns every champion in the current catalog.
func (h *ChampionsHandler) List(w http.ResponseWriter, r *http.Request) {
	units := h.service.Catalog().Registry.Units()
	response.Success(w, map[string]interface{}{
		"champions": units,
		"count":     len(units),
	})
}
