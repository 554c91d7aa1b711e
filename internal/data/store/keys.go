package store

import (
	"encoding/json"
	"slices"

	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/commonModels"
)

func sessionKey(id string) string          { return "session:" + id }
func ownerSessionsKey(owner string) string { return "owner:" + owner + ":sessions" }
func documentsKey(id string) string        { return "session:" + id + ":documents" }
func turnsKey(id string) string            { return "session:" + id + ":turns" }

func marshallJson(v any) ([]byte, error) {
	return json.Marshal(v)
}

func reverseTurns(turns []chatModel.Turn) []chatModel.Turn {
	slices.Reverse(turns)
	return turns
}

// newest sessions first, like the sidebar shows them
func sortSessions(sessions []chatModel.Session) {
	slices.SortFunc(sessions, func(a, b chatModel.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func sortDocuments(docs []commonModels.Document) {
	slices.SortFunc(docs, func(a, b commonModels.Document) int {
		return a.UploadedAt.Compare(b.UploadedAt)
	})
}
