package llm

import (
	"context"
	"strings"

	"github.com/akolanti/codex/internal/domain/chatModel"
)

// Provider produces one answer per call. history is chronological.
type Provider interface {
	Generate(ctx context.Context, systemInstruction string, matches []string, question string, history []chatModel.Turn) (string, error)
}

// RenderUserPrompt lays out the retrieved passages, the question and the prior turns
// the same way for every provider.
func RenderUserPrompt(matches []string, question string, history []chatModel.Turn) string {
	var b strings.Builder
	b.WriteString("Document content:\n\n")
	b.WriteString(strings.Join(matches, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nPrevious conversation:\n")
	for _, t := range history {
		b.WriteString("Human: ")
		b.WriteString(t.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Answer)
		b.WriteString("\n")
	}
	b.WriteString("\nProvide a direct analysis of the document content.")
	return b.String()
}
