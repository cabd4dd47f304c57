package handlers

import (
	"net/http"
	"testing"
)

func TestGetStatus(t *testing.T) {
	svc := testService(t)
	h := NewStatusHandler(svc)

	if _, err := svc.Session().ToggleOwned("brand"); err != nil {
		t.Fatalf("ToggleOwned() error = %v", err)
	}

	rec := getJSON(t, h.GetStatus, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		State struct {
			Owned []struct {
				ID    string `json:"id"`
				Count int    `json:"count"`
			} `json:"owned"`
			Level int `json:"level"`
		} `json:"state"`
		Recommendations []struct {
			DeckID string `json:"deck_id"`
		} `json:"recommendations"`
		DeckCount int `json:"deck_count"`
	}
	decodeData(t, rec, &got)

	if len(got.State.Owned) != 1 || got.State.Owned[0].ID != "brand" {
		t.Errorf("owned = %v, want brand", got.State.Owned)
	}
	if got.DeckCount != 1 {
		t.Errorf("deck_count = %d, want 1", got.DeckCount)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].DeckID != "mages" {
		t.Errorf("recommendations = %v, want mages ranked", got.Recommendations)
	}
}

func TestRecommend(t *testing.T) {
	h := NewStatusHandler(testService(t))

	rec := postJSON(t, h.Recommend, "/api/recommend", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Count int `json:"count"`
	}
	decodeData(t, rec, &got)
	if got.Count != 1 {
		t.Errorf("count = %d, want 1", got.Count)
	}
}

func TestGetPool(t *testing.T) {
	svc := testService(t)
	h := NewPoolHandler(svc)

	rec := getJSON(t, h.GetPool, "/api/pool")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got map[string][]struct {
		ID        string `json:"id"`
		Remaining int    `json:"remaining"`
	}
	decodeData(t, rec, &got)
	if len(got["1"]) != 2 || len(got["2"]) != 1 {
		t.Errorf("pool groups = %v, want 2 cost-1 and 1 cost-2 entries", got)
	}
}

func TestListChampions(t *testing.T) {
	h := NewChampionsHandler(testService(t))

	rec := getJSON(t, h.List, "/api/champions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Count int `json:"count"`
	}
	decodeData(t, rec, &got)
	if got.Count != 3 {
		t.Errorf("count = %d, want 3", got.Count)
	}
}
