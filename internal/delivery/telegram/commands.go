package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

func (h *Handler) helpHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.send(newHTMLMessage(chatID, msgWelcome))
	}
}

// pasteHandler parses pasted text and starts a new run.
func (h *Handler) pasteHandler(text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		w := h.workspaces.Workspace(ctx, chatID)

		res, err := w.Load(ctx, text)
		switch {
		case errors.Is(err, service.ErrEmptyInput):
			return h.send(newHTMLMessage(chatID, msgEmptyInput))
		case errors.Is(err, service.ErrNoQuestions):
			return h.send(newHTMLMessage(chatID, msgNoQuestions))
		case err != nil:
			return err
		}

		if err := h.send(newHTMLMessage(chatID, formatLoaded(res))); err != nil {
			return err
		}

		body, kb := quizScreen(w.View(), "")
		return h.sendScreen(chatID, body, kb)
	}
}

func (h *Handler) errorBookHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		w := h.workspaces.Workspace(ctx, chatID)

		if !w.SwitchToErrorBook() {
			if err := h.send(newHTMLMessage(chatID, msgEmptyErrorBook)); err != nil {
				return err
			}
		}

		text, kb := collectionScreen(w)
		return h.sendScreen(chatID, text, kb)
	}
}

func (h *Handler) saveHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		w := h.workspaces.Workspace(ctx, chatID)

		c, ok := w.SaveSessionErrors(ctx)
		if !ok {
			return h.send(newHTMLMessage(chatID, msgNothingToSave))
		}

		return h.send(newHTMLMessage(chatID, fmt.Sprintf(msgSaved, bold(c.Name), len(c.Questions))))
	}
}

func (h *Handler) normalHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		w := h.workspaces.Workspace(ctx, chatID)

		if !w.SwitchToNormal() {
			return h.send(newHTMLMessage(chatID, msgNoQuiz))
		}

		text, kb := quizScreen(w.View(), "")
		return h.sendScreen(chatID, text, kb)
	}
}

func (h *Handler) resetHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		h.workspaces.Workspace(ctx, chatID).Reset()

		if prev, ok := h.messages.Get(chatID); ok {
			h.stripKeyboard(chatID, prev.MessageID)
			h.messages.Delete(chatID)
		}

		return h.send(newHTMLMessage(chatID, msgReset))
	}
}

// renameHandler applies a name typed after the rename button was pressed.
func (h *Handler) renameHandler(collectionID, name string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		w := h.workspaces.Workspace(ctx, chatID)

		if !w.Book().Rename(ctx, collectionID, name) {
			return h.send(newHTMLMessage(chatID, msgRenameFailed))
		}

		c, _ := w.Book().Collection(collectionID)
		if err := h.send(newHTMLMessage(chatID, fmt.Sprintf(msgRenamed, bold(c.Name)))); err != nil {
			return err
		}

		if w.Mode() != service.ModeCollectionList {
			return nil
		}

		text, kb := collectionScreen(w)
		return h.sendScreen(chatID, text, kb)
	}
}

func quizScreen(v service.View, feedback string) (string, tgbotapi.InlineKeyboardMarkup) {
	return formatQuestion(v, feedback), buildQuestionKeyboard(v)
}

func collectionScreen(w *service.Workspace) (string, tgbotapi.InlineKeyboardMarkup) {
	book := w.Book()
	collections := book.Collections()

	var temp *entities.ErrorCollection
	if c, ok := book.TemporaryCollection(); ok {
		temp = &c
	}

	return formatCollectionList(temp, collections, book.TotalErrorCount()),
		buildCollectionListKeyboard(temp, collections)
}
