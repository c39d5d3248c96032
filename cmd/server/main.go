package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/config"
	api "github.com/aliskhannn/quiz-errorbook-bot/internal/delivery/http"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/infra"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/logger"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := infra.OpenKV(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeKV()

	workspaceService := service.NewWorkspaceService(
		storage.NewWorkspaceStorage[*service.Workspace](),
		kv,
		service.WorkspaceConfig{
			CompletionDelay: cfg.Quiz.CompletionDelay,
			IdleTTL:         cfg.Quiz.WorkspaceTTL,
		},
		lg,
	)
	go workspaceService.Start(ctx)

	s := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(workspaceService, cfg.HTTP.CORSOrigins, lg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			lg.Error("http shutdown", zap.Error(err))
		}
	}()

	lg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("http server stopped", zap.Error(err))
	}

	lg.Info("shutdown complete")
}
