package api

import "time"

type ResponseStatus string

const (
	StatusOk    ResponseStatus = "ok"
	StatusError ResponseStatus = "error"
)

type ErrorResponse struct {
	Status ResponseStatus `json:"status" example:"error"`
	Id     string         `json:"id,omitempty" example:"3f0c2a9e-5d1b-4b8e-9f43-2d2a4c7e8a10"`
	Error  OutgoingError  `json:"error"`
}

type OutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Kind    string `json:"kind,omitempty" example:"index_not_found"`
	Message string `json:"message" example:"no document has been indexed for this session"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type DocumentResponse struct {
	Id         string    `json:"id"`
	Filename   string    `json:"filename" example:"annual-report.pdf"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type SessionResponse struct {
	Id        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	Documents []DocumentResponse `json:"documents"`
}

type ChatResponse struct {
	Status           ResponseStatus  `json:"status"`
	Answer           string          `json:"answer"`
	Sources          []string        `json:"sources"`
	Mode             string          `json:"mode" example:"balanced"`
	Session          SessionResponse `json:"session"`
	ChatCount        int             `json:"chat_count" example:"3"`
	WarningThreshold int             `json:"warning_threshold" example:"8"`
	AlertThreshold   int             `json:"alert_threshold" example:"15"`
}

type UploadResponse struct {
	Status   ResponseStatus   `json:"status"`
	Message  string           `json:"message" example:"Document processed successfully"`
	Session  SessionResponse  `json:"session"`
	Document DocumentResponse `json:"document"`
	Pages    int              `json:"pages"`
	Chunks   int              `json:"chunks"`
}

type MessageResponse struct {
	Role      string    `json:"role" example:"user"`
	Content   string    `json:"content"`
	Mode      string    `json:"mode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagesResponse struct {
	SessionId string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
	ChatCount int               `json:"chat_count"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type DocumentListResponse struct {
	SessionId string             `json:"session_id"`
	Documents []DocumentResponse `json:"documents"`
}

type HealthResponse struct {
	Status ResponseStatus `json:"status" example:"ok"`
}

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id" validate:"required"`
	Mode      string `json:"mode,omitempty" example:"balanced"`
}

type CreateSessionRequest struct {
	Name string `json:"name,omitempty"`
}

type RenameSessionRequest struct {
	Name string `json:"name" validate:"required"`
}
