// @title           Codex Document Chat API
// @version         1.0
// @description     Upload a PDF into a session and hold a conversation grounded in its content.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akolanti/codex/internal/chat"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/middleware"
	"github.com/akolanti/codex/internal/rag"
	"github.com/akolanti/codex/internal/server"
	"github.com/akolanti/codex/pkg/logger_i"
)

var (
	listenAddr string
	issueToken string
	tokenTTL   time.Duration
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	flag.StringVar(&listenAddr, "listen-addr", cfg.Server.ListenAddr, "server listen address")
	flag.StringVar(&issueToken, "issue-token", "", "print a bearer token for this owner id and exit")
	flag.DurationVar(&tokenTTL, "token-ttl", 30*24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	logger_i.Init(cfg.Server.IsProd)
	var logger = logger_i.NewLogger("main")

	if issueToken != "" {
		token, err := middleware.IssueToken(issueToken, []byte(cfg.Auth.JWTSecret), tokenTTL)
		if err != nil {
			logger.Error("Could not issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	sessions, conversations := buildStores(serviceContext, cfg, logger)

	index, err := buildIndex(serviceContext, cfg)
	if err != nil {
		logger.Error("Index backend failed to initialize", "backend", cfg.Storage.IndexBackend, "error", err)
		return
	}
	embedder, err := buildEmbedder(serviceContext, cfg.Provider)
	if err != nil {
		logger.Error("Embedding provider failed to initialize", "provider", cfg.Provider.Embedding, "error", err)
		return
	}
	llmProvider, err := buildLLM(serviceContext, cfg.Provider)
	if err != nil {
		logger.Error("LLM provider failed to initialize", "provider", cfg.Provider.LLM, "error", err)
		return
	}

	ragService, err := rag.NewService(index, llmProvider, embedder, cfg.Engine)
	if err != nil {
		logger.Error("Engine configuration rejected", "error", err)
		return
	}
	chatService := chat.NewService(chat.ServiceConfig{
		Sessions:      sessions,
		Conversations: conversations,
		Engine:        ragService,
		Chat:          cfg.Chat,
		HistoryWindow: cfg.Engine.HistoryWindow,
	})
	if cfg.Auth.NoAuthBypass {
		logger.Warn("Authentication is bypassed, every request acts as", "owner", config.NoAuthBypassOwner)
	}
	router := server.NewRouter(chatService, middleware.NewChain(cfg))

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, router)

	<-stopExecution
	logger.Info("Server stopped")
}
