package ollamaLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/codex/internal/config"
)

func TestGenerate(t *testing.T) {
	var req struct {
		Model    string `json:"model"`
		Stream   *bool  `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"local answer"},"done":true}`))
	}))
	defer srv.Close()

	cfg := config.Default().Provider
	cfg.OllamaHost = srv.URL
	p, err := NewOllamaClient(cfg)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Generate(context.Background(), "system text", []string{"chunk"}, "q", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "local answer" {
		t.Errorf("got %q", got)
	}
	if req.Stream == nil || *req.Stream {
		t.Error("expected a non-streaming request")
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("unexpected messages %+v", req.Messages)
	}
}
