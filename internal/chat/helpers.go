package chat

import (
	"path/filepath"

	"github.com/akolanti/codex/internal/domain/chatModel"
)

// chronological copies most-recent-first turns into creation order.
func chronological(recent []chatModel.Turn) []chatModel.Turn {
	out := make([]chatModel.Turn, len(recent))
	for i, t := range recent {
		out[len(recent)-1-i] = t
	}
	return out
}

func getExtension(fileName string) string {
	return filepath.Ext(fileName)
}
