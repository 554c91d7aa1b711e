package handlers

import (
	"io"
	"net/http"

	"github.com/akolanti/codex/internal/adapter"
	"github.com/akolanti/codex/internal/api"
	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/config"
)

type ChatHandler struct {
	service       chat.Service
	maxUploadSize int64
}

func NewChatHandler(service chat.Service) *ChatHandler {
	return &ChatHandler{service: service, maxUploadSize: config.MaxUploadSize}
}

// Health godoc
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: api.StatusOk})
}

// Chat godoc
// @Summary      Ask a question about the session's document
// @Description  Retrieves the most relevant chunks, answers in the requested mode and records the turn.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest    true  "Message, session id and optional mode"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Bad request, unknown mode or no indexed document"
// @Failure      404      {object}  api.ErrorResponse  "Session not found"
// @Failure      502      {object}  api.ErrorResponse  "Embedding or generation provider failed"
// @Security     BearerAuth
// @Router       /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}

	var req api.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad chat request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	res, err := h.service.Chat(r.Context(), owner, chat.ChatInput{
		SessionId: req.SessionId,
		Message:   req.Message,
		Mode:      req.Mode,
	})
	if err != nil {
		writeServiceError(w, r, req.SessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(res))
}

// Upload godoc
// @Summary      Upload a PDF and index it
// @Description  Indexes the file for the given session, or for a new session when session_id is empty. Replaces any previous index of that session.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file        formData  file    true   "PDF file, at most 32 MiB"
// @Param        session_id  formData  string  false  "Existing session to index into"
// @Success      200  {object}  api.UploadResponse
// @Failure      400  {object}  api.ErrorResponse  "Not a PDF, too large, unknown session or no extractable text"
// @Failure      502  {object}  api.ErrorResponse  "Embedding provider failed"
// @Failure      500  {object}  api.ErrorResponse  "Index could not be written"
// @Security     BearerAuth
// @Router       /upload [post]
func (h *ChatHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.begin(w, r)
	if !ok {
		return
	}

	//multipart framing needs a little headroom over the file limit
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}
	sessionId := r.FormValue("session_id")

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "No file provided")
		return
	}
	defer fileReader.Close()

	if fileMetadata.Size > h.maxUploadSize {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "File too large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(fileReader, h.maxUploadSize+1))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "Could not read file")
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "File too large")
		return
	}

	res, err := h.service.Upload(r.Context(), owner, sessionId, fileMetadata.Filename, data)
	if err != nil {
		writeServiceError(w, r, sessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUploadResponse(res))
}
