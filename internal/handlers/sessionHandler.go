package handlers

import (
	"net/http"

	"github.com/akolanti/codex/internal/adapter"
	"github.com/akolanti/codex/internal/adapter/utils"
	"github.com/akolanti/codex/internal/api"
)

// CreateSession godoc
// @Summary      Create an empty session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateSessionRequest  false  "Optional display name"
// @Success      201      {object}  api.SessionResponse
// @Security     BearerAuth
// @Router       /sessions [post]
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req api.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}
	}
	session, err := h.service.CreateSession(r.Context(), owner, req.Name)
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, adapter.ToSessionResponse(session))
}

// ListSessions godoc
// @Summary      List the caller's sessions, newest first
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  api.SessionListResponse
// @Security     BearerAuth
// @Router       /sessions [get]
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}
	sessions, err := h.service.ListSessions(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionListResponse(sessions))
}

// RenameSession godoc
// @Summary      Rename a session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Session ID"
// @Param        request  body      api.RenameSessionRequest  true  "New name"
// @Success      200      {object}  api.SessionResponse
// @Failure      404      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [patch]
func (h *ChatHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	var req api.RenameSessionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, id, "Bad Request")
		return
	}
	session, err := h.service.RenameSession(r.Context(), owner, id, req.Name)
	if err != nil {
		writeServiceError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionResponse(session))
}

// DeleteSession godoc
// @Summary      Delete a session with its index, documents and turns
// @Tags         Sessions
// @Param        id   path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [delete]
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if err := h.service.DeleteSession(r.Context(), owner, id); err != nil {
		writeServiceError(w, r, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments godoc
// @Summary      Documents uploaded to a session
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.DocumentListResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/documents [get]
func (h *ChatHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	docs, err := h.service.ListDocuments(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.DocumentListResponse{SessionId: id, Documents: adapter.ToDocumentResponses(docs)})
}

// Messages godoc
// @Summary      Conversation history in chronological order
// @Tags         Chat
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.MessagesResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/messages [get]
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	transcript, err := h.service.Messages(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToMessagesResponse(transcript))
}

func (h *ChatHandler) begin(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !validateContext(r.Context()) {
		return "", false
	}
	owner, ok := OwnerFrom(r.Context())
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "", "Unauthorized")
		return "", false
	}
	return owner, true
}
