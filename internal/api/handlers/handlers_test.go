package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minsukang/tft-guide/internal/api/websocket"
	"github.com/minsukang/tft-guide/internal/engine"
	"github.com/minsukang/tft-guide/internal/gamedata"
	"github.com/minsukang/tft-guide/internal/guide"
)

// recordingNotifier captures broadcast events instead of fanning them
// out.
type recordingNotifier struct {
	events []websocket.Event
}

func (n *recordingNotifier) BroadcastEvent(event websocket.Event) bool {
	n.events = append(n.events, event)
	return true
}

func testService(t *testing.T) *guide.Service {
	t.Helper()

	reg, err := engine.NewRegistry(
		[]engine.Unit{
			{ID: "ashe", Name: "Ashe", Cost: 1, Traits: []string{"sniper"}, PoolCopies: 10},
			{ID: "brand", Name: "Brand", Cost: 1, Traits: []string{"mage"}, PoolCopies: 10},
			{ID: "cass", Name: "Cassiopeia", Cost: 2, Traits: []string{"mage"}, PoolCopies: 8},
		},
		[]engine.Trait{
			{ID: "sniper", Name: "Sniper", Thresholds: []int{2, 4}},
			{ID: "mage", Name: "Mage", Thresholds: []int{3, 6}},
		},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	odds, err := gamedata.DefaultShopOdds()
	if err != nil {
		t.Fatalf("DefaultShopOdds() error = %v", err)
	}

	store := gamedata.NewStore(&gamedata.Catalog{
		Registry: reg,
		Odds:     odds,
		Decks: []engine.MetaDeck{
			{ID: "mages", Name: "Mages", Tier: "S", Core: []engine.UnitID{"brand", "cass"}},
		},
	})

	svc, err := guide.New(store, guide.DefaultConfig())
	if err != nil {
		t.Fatalf("guide.New() error = %v", err)
	}
	return svc
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func getJSON(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// decodeData unwraps the {"data": ...} envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, rec.Body.String())
	}
}
