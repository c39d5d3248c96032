package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/config"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/delivery/telegram"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/infra"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/logger"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/storage"
)

func main() {
	cfg, err := config.Load(config.WithTelegram())
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

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		lg.Fatal("failed to create bot", zap.Error(err))
	}

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "开始使用",
		},
		{
			Command:     "errors",
			Description: "错题本",
		},
		{
			Command:     "save",
			Description: "保存本次会话错题",
		},
		{
			Command:     "normal",
			Description: "回到题目",
		},
		{
			Command:     "reset",
			Description: "清空当前题目",
		},
		{
			Command:     "help",
			Description: "帮助",
		},
	}

	_, err = bot.Request(tgbotapi.NewSetMyCommands(commands...))
	if err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	bot.Debug = cfg.Env != "production"
	lg.Info("authorized", zap.String("account", bot.Self.UserName))

	workspaceService := service.NewWorkspaceService(
		storage.NewWorkspaceStorage[*service.Workspace](),
		kv,
		service.WorkspaceConfig{
			CompletionDelay: cfg.Quiz.CompletionDelay,
			IdleTTL:         cfg.Quiz.WorkspaceTTL,
		},
		lg,
	)

	handler := telegram.NewHandler(
		bot,
		lg,
		workspaceService,
		storage.NewMessageStorage(),
	)
	workspaceService.SetNotifier(handler)

	go workspaceService.Start(ctx)

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("handler stopped", zap.Error(err))
	}

	lg.Info("shutdown signal received")
}
