package adapter

import (
	"errors"
	"net/http"

	"github.com/akolanti/codex/internal/api"
	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/commonModels"
	"github.com/akolanti/codex/internal/domain/ragErrors"
)

func ToDocumentResponse(doc commonModels.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:         doc.Id,
		Filename:   doc.Name,
		UploadedAt: doc.UploadedAt,
	}
}

func ToDocumentResponses(docs []commonModels.Document) []api.DocumentResponse {
	out := make([]api.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return out
}

func ToSessionResponse(session chatModel.Session) api.SessionResponse {
	return api.SessionResponse{
		Id:        session.Id,
		Name:      session.Name,
		CreatedAt: session.CreatedAt,
		Documents: ToDocumentResponses(session.Documents),
	}
}

func ToSessionListResponse(sessions []chatModel.Session) api.SessionListResponse {
	out := make([]api.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToSessionResponse(s))
	}
	return api.SessionListResponse{Sessions: out}
}

func ToChatResponse(res chat.ChatResult) api.ChatResponse {
	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}
	return api.ChatResponse{
		Status:           api.StatusOk,
		Answer:           res.Answer,
		Sources:          sources,
		Mode:             string(res.Mode),
		Session:          ToSessionResponse(res.Session),
		ChatCount:        res.TurnCount,
		WarningThreshold: res.WarningThreshold,
		AlertThreshold:   res.AlertThreshold,
	}
}

func ToUploadResponse(res chat.UploadResult) api.UploadResponse {
	return api.UploadResponse{
		Status:   api.StatusOk,
		Message:  "Document processed successfully",
		Session:  ToSessionResponse(res.Session),
		Document: ToDocumentResponse(res.Document),
		Pages:    res.Index.Pages,
		Chunks:   res.Index.Chunks,
	}
}

// ToMessagesResponse renders each turn as a user message followed by the assistant reply.
func ToMessagesResponse(t chat.Transcript) api.MessagesResponse {
	messages := make([]api.MessageResponse, 0, 2*len(t.Turns))
	for _, turn := range t.Turns {
		messages = append(messages,
			api.MessageResponse{Role: "user", Content: turn.Question, CreatedAt: turn.CreatedAt},
			api.MessageResponse{Role: "assistant", Content: turn.Answer, Mode: string(turn.Mode), CreatedAt: turn.CreatedAt},
		)
	}
	return api.MessagesResponse{
		SessionId: t.SessionId,
		Messages:  messages,
		ChatCount: len(t.Turns),
	}
}

func ErrorBody(id string, message string, kind string, code int, retry bool) api.ErrorResponse {
	return api.ErrorResponse{
		Status: api.StatusError,
		Id:     id,
		Error: api.OutgoingError{
			Code:    code,
			Kind:    kind,
			Message: message,
			Retry:   retry,
		},
	}
}

func BadRequest(id string, message string, code int) api.ErrorResponse {
	return ErrorBody(id, message, "", code, false)
}

type errorMapping struct {
	kind   error
	name   string
	status int
}

// order matters: MalformedModelResponse also matches GenerationFailure
var errorTable = []errorMapping{
	{ragErrors.ErrInvalidRequest, "invalid_request", http.StatusBadRequest},
	{ragErrors.ErrUnknownMode, "unknown_mode", http.StatusBadRequest},
	{ragErrors.ErrUnsupportedFormat, "unsupported_format", http.StatusBadRequest},
	{ragErrors.ErrIndexNotFound, "index_not_found", http.StatusBadRequest},
	{ragErrors.ErrSessionNotFound, "session_not_found", http.StatusNotFound},
	{ragErrors.ErrEmbeddingService, "embedding_service", http.StatusBadGateway},
	{ragErrors.ErrMalformedModelResponse, "malformed_model_response", http.StatusBadGateway},
	{ragErrors.ErrGenerationFailure, "generation_failure", http.StatusBadGateway},
	{ragErrors.ErrStorageWrite, "storage_write", http.StatusInternalServerError},
	{ragErrors.ErrRetrievalFailure, "retrieval_failure", http.StatusInternalServerError},
}

func lookup(err error) (errorMapping, bool) {
	for _, m := range errorTable {
		if errors.Is(err, m.kind) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// StatusFor maps an error kind to its HTTP status and wire name.
func StatusFor(err error) (int, string) {
	if m, ok := lookup(err); ok {
		return m.status, m.name
	}
	return http.StatusInternalServerError, "internal"
}

// ToErrorResponse keeps the full message for client errors only.
// Server side failures carry paths, addresses and provider output, so they surface as the bare kind.
func ToErrorResponse(id string, err error) (int, api.ErrorResponse) {
	m, ok := lookup(err)
	if !ok {
		return http.StatusInternalServerError, ErrorBody(id, "internal error", "internal", http.StatusInternalServerError, ragErrors.Retryable(err))
	}
	message := err.Error()
	if m.status >= http.StatusInternalServerError {
		message = m.kind.Error()
	}
	return m.status, ErrorBody(id, message, m.name, m.status, ragErrors.Retryable(err))
}
