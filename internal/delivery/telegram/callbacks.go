package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

// screen is the result of a callback: the new content of the pressed message
// and an optional toast for the callback answer.
type screen struct {
	text  string
	kb    *tgbotapi.InlineKeyboardMarkup
	toast string
	alert bool
	edit  bool
}

func newScreen(text string, kb tgbotapi.InlineKeyboardMarkup) screen {
	return screen{text: text, kb: &kb, edit: true}
}

func toast(text string, alert bool) screen {
	return screen{toast: text, alert: alert}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb, "", false)
		return
	}

	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	data := decodeCallback(cb.Data)
	w := h.workspaces.Workspace(ctx, chatID)

	var sc screen

	switch data.Action {
	case actionAnswer:
		sc = h.selectOptionCallback(w, data.param(0))
	case actionSubmit:
		sc = h.submitCallback(ctx, chatID, w)
	case actionNav:
		sc = h.navCallback(w, data.param(0))
	case actionGoTo:
		sc = h.goToCallback(w, data.param(0))
	case actionCollection:
		sc = h.collectionCallback(ctx, chatID, w, data)
	case actionErrorBook:
		sc = h.errorBookCallback(w)
	case actionSave:
		sc = h.saveCallback(ctx, w)
	case actionSavePractice:
		sc = h.savePracticeCallback(ctx, w)
	case actionNormal:
		sc = h.normalCallback(w)
	case actionIgnore:
		h.stripKeyboard(chatID, msgID)
	case actionBack:
		w.BackToInput()
		sc = screen{text: msgBackToInput, edit: true}
	default:
		h.logger.Warn("unknown callback",
			zap.Int64("chat_id", chatID),
			zap.String("data", data.Raw),
		)
	}

	if sc.edit {
		edit := newHTMLEdit(chatID, msgID, sc.text)
		if sc.kb != nil {
			edit.ReplyMarkup = sc.kb
		}

		if err := h.send(edit); err != nil {
			h.logger.Debug("failed to edit message",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		} else if sc.kb != nil {
			h.track(chatID, msgID)
		}
	}

	// Remove the user's "clock".
	h.answerCallback(cb, sc.toast, sc.alert)
}

func (h *Handler) selectOptionCallback(w *service.Workspace, label string) screen {
	if !w.SetAnswer(label) {
		return screen{}
	}
	return newScreen(quizScreen(w.View(), ""))
}

func (h *Handler) submitCallback(ctx context.Context, chatID int64, w *service.Workspace) screen {
	res, ok := h.workspaces.Submit(ctx, chatID)
	if !ok {
		return toast(msgNoAnswer, true)
	}

	sc := newScreen(quizScreen(w.View(), formatFeedback(res)))
	if res.Correct {
		sc.toast = msgCorrect
	}
	return sc
}

func (h *Handler) navCallback(w *service.Workspace, direction string) screen {
	switch direction {
	case navPrev:
		if !w.Prev() {
			return toast(msgFirstQuestion, false)
		}
	case navNext:
		if !w.Next() {
			return toast(msgLastQuestion, false)
		}
	default:
		return screen{}
	}

	return newScreen(quizScreen(w.View(), ""))
}

func (h *Handler) goToCallback(w *service.Workspace, param string) screen {
	index, err := strconv.Atoi(param)
	if err != nil || !w.GoTo(index) {
		return screen{}
	}
	return newScreen(quizScreen(w.View(), ""))
}

func (h *Handler) collectionCallback(ctx context.Context, chatID int64, w *service.Workspace, data callbackData) screen {
	id := data.param(1)

	switch data.param(0) {
	case collectionList:
		w.BackToCollectionList()
		return newScreen(collectionScreen(w))

	case collectionStart:
		err := w.StartCollection(id)
		switch {
		case errors.Is(err, service.ErrCollectionNotFound):
			sc := newScreen(collectionScreen(w))
			sc.toast, sc.alert = msgCollectionNotFound, true
			return sc
		case errors.Is(err, service.ErrCollectionEmpty):
			sc := newScreen(collectionScreen(w))
			sc.toast, sc.alert = msgCollectionEmpty, true
			return sc
		case err != nil:
			h.logger.Error("failed to start collection", zap.String("collection_id", id), zap.Error(err))
			return toast(msgInternalError, true)
		}
		return newScreen(quizScreen(w.View(), ""))

	case collectionRename:
		if _, ok := w.Book().Collection(id); !ok {
			return toast(msgCollectionNotFound, true)
		}
		h.startRename(chatID, id)
		if err := h.send(newHTMLMessage(chatID, msgRenamePrompt)); err != nil {
			h.logger.Error("failed to send rename prompt", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return screen{}

	case collectionDelete:
		if !w.Book().Delete(ctx, id) {
			return toast(msgCollectionNotFound, true)
		}
		sc := newScreen(collectionScreen(w))
		sc.toast = msgDeleted
		return sc
	}

	return screen{}
}

func (h *Handler) errorBookCallback(w *service.Workspace) screen {
	hasErrors := w.SwitchToErrorBook()

	sc := newScreen(collectionScreen(w))
	if !hasErrors {
		sc.toast, sc.alert = msgEmptyErrorBook, true
	}
	return sc
}

func (h *Handler) saveCallback(ctx context.Context, w *service.Workspace) screen {
	c, ok := w.SaveSessionErrors(ctx)
	if !ok {
		return toast(msgNothingToSave, true)
	}

	w.SwitchToErrorBook()
	sc := newScreen(collectionScreen(w))
	sc.toast = fmt.Sprintf(msgSaved, c.Name, len(c.Questions))
	return sc
}

func (h *Handler) savePracticeCallback(ctx context.Context, w *service.Workspace) screen {
	if _, err := w.SaveAndPractice(ctx); err != nil {
		if errors.Is(err, service.ErrCollectionEmpty) {
			return toast(msgNothingToSave, true)
		}
		h.logger.Error("failed to save and practice", zap.Error(err))
		return toast(msgInternalError, true)
	}
	return newScreen(quizScreen(w.View(), ""))
}

func (h *Handler) normalCallback(w *service.Workspace) screen {
	if !w.SwitchToNormal() {
		return screen{text: msgNoQuiz, edit: true}
	}
	return newScreen(quizScreen(w.View(), ""))
}
