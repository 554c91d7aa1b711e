package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{ragErrors.Wrapf(ragErrors.ErrUnknownMode, "verbose"), http.StatusBadRequest, "unknown_mode"},
		{ragErrors.ErrIndexNotFound, http.StatusBadRequest, "index_not_found"},
		{ragErrors.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{fmt.Errorf("step: %w", ragErrors.ErrEmbeddingService), http.StatusBadGateway, "embedding_service"},
		{ragErrors.ErrMalformedModelResponse, http.StatusBadGateway, "malformed_model_response"},
		{ragErrors.Wrap(ragErrors.ErrGenerationFailure, context.DeadlineExceeded), http.StatusBadGateway, "generation_failure"},
		{ragErrors.ErrStorageWrite, http.StatusInternalServerError, "storage_write"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			status, kind := StatusFor(tt.err)
			if status != tt.status || kind != tt.kind {
				t.Errorf("StatusFor(%v) = %d %s, want %d %s", tt.err, status, kind, tt.status, tt.kind)
			}
		})
	}
}

func TestToErrorResponse_HidesInternalDetail(t *testing.T) {
	status, body := ToErrorResponse("", errors.New("dial tcp 10.0.0.3:6379: refused"))
	if status != http.StatusInternalServerError || body.Error.Message != "internal error" {
		t.Errorf("got %d %+v", status, body)
	}

	_, body = ToErrorResponse("s1", ragErrors.Wrapf(ragErrors.ErrEmbeddingService, "quota"))
	if !body.Error.Retry {
		t.Error("embedding failures should be flagged retryable")
	}
}

func TestToErrorResponse_ServerErrorsShowOnlyKind(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{ragErrors.Wrap(ragErrors.ErrStorageWrite, errors.New("open /var/lib/codex/session_1/index.json: permission denied")), http.StatusInternalServerError, "index storage write failed"},
		{ragErrors.Wrap(ragErrors.ErrRetrievalFailure, errors.New("dial tcp 10.0.0.3:6379: refused")), http.StatusInternalServerError, "retrieval failed"},
		{ragErrors.Wrap(ragErrors.ErrGenerationFailure, errors.New("401 key sk-live-123 rejected")), http.StatusBadGateway, "generation failed"},
	}
	for _, tt := range tests {
		status, body := ToErrorResponse("s1", tt.err)
		if status != tt.status || body.Error.Message != tt.message {
			t.Errorf("got %d %q, want %d %q", status, body.Error.Message, tt.status, tt.message)
		}
	}

	_, body := ToErrorResponse("s1", ragErrors.Wrapf(ragErrors.ErrUnknownMode, "mode %q", "verbose"))
	if !strings.Contains(body.Error.Message, "verbose") {
		t.Errorf("client errors keep their detail, got %q", body.Error.Message)
	}
}

func TestToMessagesResponse(t *testing.T) {
	now := time.Now()
	res := ToMessagesResponse(chat.Transcript{
		SessionId: "s1",
		Turns: []chatModel.Turn{
			{Question: "q1", Answer: "a1", Mode: chatModel.ModeConcise, CreatedAt: now},
			{Question: "q2", Answer: "a2", Mode: chatModel.ModeBalanced, CreatedAt: now},
		},
	})
	if res.ChatCount != 2 || len(res.Messages) != 4 {
		t.Fatalf("got count %d with %d messages", res.ChatCount, len(res.Messages))
	}
	want := []string{"user:q1", "assistant:a1", "user:q2", "assistant:a2"}
	for i, m := range res.Messages {
		if got := m.Role + ":" + m.Content; got != want[i] {
			t.Errorf("message %d = %s, want %s", i, got, want[i])
		}
	}
}

func TestToChatResponse_NeverNullSources(t *testing.T) {
	res := ToChatResponse(chat.ChatResult{Answer: "x"})
	if res.Sources == nil || res.Session.Documents == nil {
		t.Error("slices should serialise as [] not null")
	}
}
