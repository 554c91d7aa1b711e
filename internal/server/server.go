package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/codex/internal/adapter/utils"
	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/handlers"
	"github.com/akolanti/codex/internal/mcpServer"
	"github.com/akolanti/codex/internal/middleware"
	"github.com/akolanti/codex/pkg/logger_i"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	CloseServices    context.CancelFunc
}

// NewRouter mounts every route behind the middleware chain.
func NewRouter(chatService chat.Service, chain *middleware.Chain) http.Handler {
	r := utils.GetRouter()
	h := handlers.NewChatHandler(chatService)

	r.Router.Get("/health", chain.WrapPublic(handlers.Health))
	r.Router.Options("/*", chain.WrapPublic(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Router.Post("/chat", chain.Wrap(h.Chat))
	r.Router.Post("/upload", chain.Wrap(h.Upload))

	r.Router.Post("/sessions", chain.Wrap(h.CreateSession))
	r.Router.Get("/sessions", chain.Wrap(h.ListSessions))
	r.Router.Patch("/sessions/{id}", chain.Wrap(h.RenameSession))
	r.Router.Delete("/sessions/{id}", chain.Wrap(h.DeleteSession))
	r.Router.Get("/sessions/{id}/documents", chain.Wrap(h.ListDocuments))
	r.Router.Get("/sessions/{id}/messages", chain.Wrap(h.Messages))

	r.Router.Handle("/mcp", chain.WrapHandler(mcpServer.NewHandler(chatService)))
	return r.Router
}

func CreateServer(listenAddr string, handler http.Handler) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}
		//closes redis and qdrant clients
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Graceful shutdown complete")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
