package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

type Handler struct {
	bot        BotAPI
	logger     *zap.Logger
	workspaces WorkspaceService
	messages   MessageStorage

	mu       sync.Mutex
	renaming map[int64]string // chat id -> collection id awaiting a new name
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	workspaces WorkspaceService,
	messages MessageStorage,
) *Handler {
	return &Handler{
		bot:        bot,
		logger:     logger,
		workspaces: workspaces,
		messages:   messages,
		renaming:   make(map[int64]string),
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	chatID := update.Message.Chat.ID
	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.Int("text_len", len(update.Message.Text)),
	)

	if update.Message.IsCommand() {
		h.clearRename(chatID)

		switch update.Message.Command() {
		case "start", "help":
			_ = h.withErrorHandling(h.helpHandler())(ctx, chatID)

		case "errors":
			_ = h.withErrorHandling(h.errorBookHandler())(ctx, chatID)

		case "save":
			_ = h.withErrorHandling(h.saveHandler())(ctx, chatID)

		case "normal":
			_ = h.withErrorHandling(h.normalHandler())(ctx, chatID)

		case "reset":
			_ = h.withErrorHandling(h.resetHandler())(ctx, chatID)

		default:
			h.sendError(chatID, msgUnknownCommand)
		}

		return
	}

	if id, ok := h.takeRename(chatID); ok {
		_ = h.withErrorHandling(h.renameHandler(id, update.Message.Text))(ctx, chatID)
		return
	}

	_ = h.withErrorHandling(h.pasteHandler(update.Message.Text))(ctx, chatID)
}

// NotifyCompletion offers to save the misses of a finished run.
func (h *Handler) NotifyCompletion(_ context.Context, chatID int64, offer service.CompletionOffer) {
	msg := newHTMLMessage(chatID, formatCompletion(offer))
	msg.ReplyMarkup = buildCompletionKeyboard()
	if err := h.send(msg); err != nil {
		h.logger.Error("failed to send completion offer",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (h *Handler) startRename(chatID int64, collectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renaming[chatID] = collectionID
}

func (h *Handler) takeRename(chatID int64) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.renaming[chatID]
	delete(h.renaming, chatID)
	return id, ok
}

func (h *Handler) clearRename(chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.renaming, chatID)
}

// track makes msgID the chat's quiz message and strips the keyboard from the previous one.
func (h *Handler) track(chatID int64, msgID int) {
	prev, hadPrev := h.messages.UpsertAndGetPrev(chatID, msgID)
	if !hadPrev || prev.MessageID == msgID {
		return
	}

	h.stripKeyboard(chatID, prev.MessageID)
}

func (h *Handler) stripKeyboard(chatID int64, msgID int) {
	strip := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := h.bot.Request(strip); err != nil {
		h.logger.Debug("failed to strip old keyboard",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	if err := h.send(newHTMLMessage(chatID, text)); err != nil {
		h.logger.Error("failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	_, err := h.bot.Send(c)
	return err
}

// sendScreen sends text with kb as the chat's new quiz message.
func (h *Handler) sendScreen(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	msg := newHTMLMessage(chatID, text)
	msg.ReplyMarkup = kb

	sent, err := h.bot.Send(msg)
	if err != nil {
		return err
	}

	h.track(chatID, sent.MessageID)
	return nil
}

func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	answer := tgbotapi.NewCallback(cb.ID, text)
	if alert {
		answer = tgbotapi.NewCallbackWithAlert(cb.ID, text)
	}

	if _, err := h.bot.Request(answer); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}
