package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/storage"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type WorkspaceService interface {
	Workspace(ctx context.Context, id int64) *service.Workspace
	Submit(ctx context.Context, id int64) (service.SubmitResult, bool)
	Drop(id int64)
}

type MessageStorage interface {
	Get(chatID int64) (storage.QuizMessage, bool)
	Delete(chatID int64)
	UpsertAndGetPrev(chatID int64, messageID int) (prev storage.QuizMessage, hadPrev bool)
}
