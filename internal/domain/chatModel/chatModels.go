package chatModel

import (
	"context"
	"time"

	"github.com/akolanti/codex/internal/domain/commonModels"
)

type Mode string

const (
	ModeConcise  Mode = "concise"
	ModeBalanced Mode = "balanced"
	ModeDetailed Mode = "detailed"
)

type Session struct {
	Id        string                  `json:"id"`
	Name      string                  `json:"name,omitempty"`
	OwnerId   string                  `json:"owner_id"`
	CreatedAt time.Time               `json:"created_at"`
	Documents []commonModels.Document `json:"documents,omitempty"`
}

// Turn is one question and its answer. Written once, never edited.
type Turn struct {
	Id        string    `json:"id"`
	SessionId string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationStore interface {
	AppendTurn(ctx context.Context, turn Turn) error
	// RecentTurns returns at most limit turns, most recent first.
	RecentTurns(ctx context.Context, sessionId string, limit int) ([]Turn, error)
	// AllTurns returns every turn in creation order.
	AllTurns(ctx context.Context, sessionId string) ([]Turn, error)
	CountTurns(ctx context.Context, sessionId string) (int, error)
	DeleteTurns(ctx context.Context, sessionId string) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, sessionId string) (Session, bool, error)
	SessionExists(ctx context.Context, sessionId string, ownerId string) (bool, error)
	ListSessions(ctx context.Context, ownerId string) ([]Session, error)
	RenameSession(ctx context.Context, sessionId string, name string) error
	DeleteSession(ctx context.Context, sessionId string) error

	RecordDocument(ctx context.Context, doc commonModels.Document) error
	RemoveDocument(ctx context.Context, sessionId string, documentId string) error
	ListDocuments(ctx context.Context, sessionId string) ([]commonModels.Document, error)
}
