package mcpServer

import (
	"context"
	"net/http"
	"time"

	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/handlers"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "1.0.0"

type ListSessionsInput struct{}

type SessionSummary struct {
	Id        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	CreatedAt string   `json:"created_at"`
	Documents []string `json:"documents"`
}

type ListSessionsOutput struct {
	Sessions []SessionSummary `json:"sessions"`
}

type AskInput struct {
	SessionId string `json:"session_id" jsonschema:"id of a session that already has an indexed PDF"`
	Question  string `json:"question" jsonschema:"question about the document"`
	Mode      string `json:"mode,omitempty" jsonschema:"concise, balanced or detailed; balanced when empty"`
}

type AskOutput struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Mode      string   `json:"mode"`
	ChatCount int      `json:"chat_count"`
}

type tools struct {
	chat   chat.Service
	logger *logger_i.Logger
}

// NewHandler serves MCP over streamable HTTP. It runs stateless so every
// request gets a server bound to the owner the auth middleware resolved.
func NewHandler(svc chat.Service) http.Handler {
	t := &tools{chat: svc, logger: logger_i.NewLogger("mcp")}
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		owner, ok := handlers.OwnerFrom(r.Context())
		if !ok {
			return nil
		}
		return t.newServer(owner)
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}

func (t *tools) newServer(owner string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "codex", Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "Lists your chat sessions, newest first, with the documents uploaded to each.",
	}, t.listSessions(owner))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answers a question using the PDF indexed for a session. The turn is added to that session's history.",
	}, t.askDocument(owner))

	return server
}

func (t *tools) listSessions(owner string) mcp.ToolHandlerFor[ListSessionsInput, ListSessionsOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
		sessions, err := t.chat.ListSessions(ctx, owner)
		if err != nil {
			return nil, ListSessionsOutput{}, err
		}
		out := ListSessionsOutput{Sessions: make([]SessionSummary, 0, len(sessions))}
		for _, s := range sessions {
			docs := make([]string, 0, len(s.Documents))
			for _, d := range s.Documents {
				docs = append(docs, d.Name)
			}
			out.Sessions = append(out.Sessions, SessionSummary{
				Id:        s.Id,
				Name:      s.Name,
				CreatedAt: s.CreatedAt.Format(time.RFC3339),
				Documents: docs,
			})
		}
		return nil, out, nil
	}
}

func (t *tools) askDocument(owner string) mcp.ToolHandlerFor[AskInput, AskOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
		res, err := t.chat.Chat(ctx, owner, chat.ChatInput{
			SessionId: in.SessionId,
			Message:   in.Question,
			Mode:      in.Mode,
		})
		if err != nil {
			t.logger.WithTrace(ctx).Warn("ask_document failed", "sessionId", in.SessionId, "error", err)
			return nil, AskOutput{}, err
		}
		sources := res.Sources
		if sources == nil {
			sources = []string{}
		}
		return nil, AskOutput{
			Answer:    res.Answer,
			Sources:   sources,
			Mode:      string(res.Mode),
			ChatCount: res.TurnCount,
		}, nil
	}
}
