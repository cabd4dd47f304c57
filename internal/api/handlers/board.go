package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/minsukang/tft-guide/internal/api/response"
	"github.com/minsukang/tft-guide/internal/api/websocket"
	"github.com/minsukang/tft-guide/internal/engine"
	"github.com/minsukang/tft-guide/internal/guide"
)

// BoardHandler mutates the live session: owned units, level and gold,
// opponent boards, the visible shop. Every successful mutation broadcasts
// a state_changed event.
type BoardHandler struct {
	service  *guide.Service
	notifier Notifier
}

// NewBoardHandler creates a new BoardHandler. notifier may be nil.
func NewBoardHandler(service *guide.Service, notifier Notifier) *BoardHandler {
	return &BoardHandler{service: service, notifier: notifier}
}

// SelectChampionRequest marks a champion owned or not.
type SelectChampionRequest struct {
	ChampionID string `json:"champion_id"`
	// Action is toggle, add or remove. Empty means toggle.
	Action string `json:"action,omitempty"`
	// Count applies to add and remove. Zero means one copy.
	Count int `json:"count,omitempty"`
}

// SelectChampion updates the owned copies of one champion.
func (h *BoardHandler) SelectChampion(w http.ResponseWriter, r *http.Request) {
	var req SelectChampionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.ChampionID == "" {
		response.BadRequest(w, errors.New("champion_id is required"))
		return
	}

	id := engine.UnitID(req.ChampionID)
	count := req.Count
	if count <= 0 {
		count = 1
	}

	sess := h.service.Session()
	var owned bool
	var err error
	switch req.Action {
	case "", "toggle":
		owned, err = sess.ToggleOwned(id)
	case "add":
		err = sess.AddOwned(id, count)
		owned = err == nil
	case "remove":
		err = sess.RemoveOwned(id, count)
	default:
		response.BadRequest(w, fmt.Errorf("unknown action %q", req.Action))
		return
	}
	if err != nil {
		writeSessionError(w, err)
		return
	}

	notify(h.notifier, websocket.EventStateChanged, nil)
	response.Success(w, map[string]interface{}{
		"champion_id": req.ChampionID,
		"owned":       owned,
	})
}

// SetLevelRequest updates player level and, optionally, gold.
type SetLevelRequest struct {
	Level int  `json:"level"`
	Gold  *int `json:"gold,omitempty"`
}

// SetLevel updates the player's level and gold.
func (h *BoardHandler) SetLevel(w http.ResponseWriter, r *http.Request) {
	var req SetLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	sess := h.service.Session()
	if err := sess.SetLevel(req.Level); err != nil {
		writeSessionError(w, err)
		return
	}
	if req.Gold != nil {
		if err := sess.SetGold(*req.Gold); err != nil {
			writeSessionError(w, err)
			return
		}
	}

	notify(h.notifier, websocket.EventStateChanged, nil)
	response.Success(w, map[string]int{
		"level": sess.Level(),
		"gold":  sess.Gold(),
	})
}

// SetOpponentsRequest replaces the scouted opponent boards.
type SetOpponentsRequest struct {
	Opponents map[string][]string `json:"opponents"`
}

// SetOpponents replaces every scouted opponent board.
func (h *BoardHandler) SetOpponents(w http.ResponseWriter, r *http.Request) {
	var req SetOpponentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	if err := h.service.SetOpponents(req.Opponents); err != nil {
		writeSessionError(w, err)
		return
	}

	notify(h.notifier, websocket.EventStateChanged, nil)
	response.Success(w, map[string]int{"opponents": len(req.Opponents)})
}

// GetOpponents returns the scouted opponent boards.
func (h *BoardHandler) GetOpponents(w http.ResponseWriter, r *http.Request) {
	state := h.service.Session().State()
	response.Success(w, state.Opponents)
}

// SetShopRequest replaces the visible shop contents.
type SetShopRequest struct {
	Champions []string `json:"champions"`
}

// SetShop replaces the champions currently visible in the shop.
func (h *BoardHandler) SetShop(w http.ResponseWriter, r *http.Request) {
	var req SetShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	if err := h.service.SetShop(req.Champions); err != nil {
		writeSessionError(w, err)
		return
	}

	notify(h.notifier, websocket.EventStateChanged, nil)
	response.Success(w, map[string]int{"shop": len(req.Champions)})
}

// Reset starts a fresh session, as when a new game begins.
func (h *BoardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetSession(); err != nil {
		response.InternalError(w, err)
		return
	}

	notify(h.notifier, websocket.EventStateChanged, nil)
	response.Success(w, map[string]string{"status": "reset"})
}
