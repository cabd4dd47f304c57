package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minsukang/tft-guide/internal/llm"
)

func TestAnalyzeWithoutModel(t *testing.T) {
	h := NewLLMHandler(testService(t), llm.NewAdvisor(nil), nil)

	rec := postJSON(t, h.Analyze, "/api/llm/analyze", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Text   string `json:"analysis"`
		Source string `json:"source"`
	}
	decodeData(t, rec, &got)
	if got.Source != "rule" {
		t.Errorf("source = %q, want rule fallback with no model", got.Source)
	}
	if got.Text == "" {
		t.Error("analysis text empty")
	}
}

func TestLLMStatusDisabled(t *testing.T) {
	h := NewLLMHandler(testService(t), llm.NewAdvisor(nil), nil)

	rec := getJSON(t, h.Status, "/api/llm/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Enabled   bool `json:"enabled"`
		Available bool `json:"available"`
	}
	decodeData(t, rec, &got)
	if got.Enabled || got.Available {
		t.Errorf("status = %+v, want disabled", got)
	}
}

func TestLLMStatusAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	cfg := llm.DefaultClientConfig()
	cfg.BaseURL = server.URL
	client := llm.NewClient(cfg)
	h := NewLLMHandler(testService(t), llm.NewAdvisor(client), client)

	rec := getJSON(t, h.Status, "/api/llm/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Enabled   bool   `json:"enabled"`
		Available bool   `json:"available"`
		Model     string `json:"model"`
	}
	decodeData(t, rec, &got)
	if !got.Enabled || !got.Available {
		t.Errorf("status = %+v, want enabled and available", got)
	}
	if got.Model != "llama3" {
		t.Errorf("model = %q, want llama3", got.Model)
	}
}
