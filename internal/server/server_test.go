package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/data/store"
	"github.com/akolanti/codex/internal/middleware"
	"github.com/akolanti/codex/internal/rag"
	"github.com/akolanti/codex/internal/rag/ingest"
)

type noopEngine struct{}

func (noopEngine) Answer(_ context.Context, req rag.AnswerRequest) (rag.AnswerResult, error) {
	return rag.AnswerResult{Answer: "ok", Mode: req.Mode}, nil
}
func (noopEngine) IngestDocument(context.Context, string, string, []byte) (ingest.IndexHandle, error) {
	return ingest.IndexHandle{}, nil
}
func (noopEngine) DeleteIndex(context.Context, string) error { return nil }

func testRouter(bypass bool) http.Handler {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.NoAuthBypass = bypass
	cfg.Server.RateLimit = 1000
	cfg.Server.RateBurst = 1000
	svc := chat.NewService(chat.ServiceConfig{
		Sessions:      store.InitInMemorySessionStore(),
		Conversations: store.InitConversationStore(),
		Engine:        noopEngine{},
		Chat:          cfg.Chat,
		HistoryWindow: cfg.Engine.HistoryWindow,
	})
	return NewRouter(svc, middleware.NewChain(cfg))
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name   string
		bypass bool
		method string
		path   string
		body   string
		status int
	}{
		{"health is public", false, http.MethodGet, "/health", "", http.StatusOK},
		{"sessions need a token", false, http.MethodGet, "/sessions", "", http.StatusUnauthorized},
		{"sessions with bypass", true, http.MethodGet, "/sessions", "", http.StatusOK},
		{"create session", true, http.MethodPost, "/sessions", `{"name":"x"}`, http.StatusCreated},
		{"unknown session messages", true, http.MethodGet, "/sessions/nope/messages", "", http.StatusNotFound},
		{"metrics", false, http.MethodGet, "/metrics", "", http.StatusOK},
		{"mcp needs a token", false, http.MethodPost, "/mcp", `{}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRouter(tt.bypass)
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestShutDownHandler_ClosesServices(t *testing.T) {
	closed := make(chan struct{})
	params := ShutdownParams{
		GracefulShutdown: make(chan os.Signal, 1),
		StopExecution:    make(chan bool),
		CloseServices:    func() { close(closed) },
	}
	go ShutDownHandler(params)
	params.GracefulShutdown <- syscall.SIGTERM

	select {
	case <-params.StopExecution:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not finish")
	}
	select {
	case <-closed:
	default:
		t.Error("external services were not closed")
	}
}
