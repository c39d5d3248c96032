package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

const (
	jumpButtonsPerRow = 5
	maxJumpButtons    = 25
)

// buildQuestionKeyboard builds the keyboard under a quiz question.
func buildQuestionKeyboard(v service.View) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if v.Question != nil {
		var options []tgbotapi.InlineKeyboardButton
		for _, opt := range v.Question.Options {
			label := opt.Label
			if isSelected(v.Question, opt.Label) {
				label = "✔ " + label
			}
			options = append(options, tgbotapi.NewInlineKeyboardButtonData(label, buildAnswerCallback(opt.Label)))
		}
		rows = append(rows, options)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ 上一题", buildNavCallback(navPrev)),
		tgbotapi.NewInlineKeyboardButtonData("提交", buildSubmitCallback()),
		tgbotapi.NewInlineKeyboardButtonData("下一题 ▶️", buildNavCallback(navNext)),
	))

	rows = append(rows, buildJumpRows(v)...)

	if v.Mode == service.ModeErrorBook {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 错题集列表", buildCollectionCallback(collectionList)),
			tgbotapi.NewInlineKeyboardButtonData("↩️ 回到题目", buildNormalCallback()),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📕 错题本 (%d)", v.TotalErrorCount), buildErrorBookCallback()),
		))
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildJumpRows builds one button per question for direct navigation.
// Long quizzes get no jump buttons.
func buildJumpRows(v service.View) [][]tgbotapi.InlineKeyboardButton {
	if len(v.Status) < 2 || len(v.Status) > maxJumpButtons {
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, st := range v.Status {
		label := strconv.Itoa(i + 1)
		if i == v.Index {
			label = "·" + label + "·"
		} else if st.Answered {
			label = statusGlyph(st) + label
		}

		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, buildGoToCallback(i)))
		if len(row) == jumpButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return rows
}

// buildCollectionListKeyboard builds the error book overview keyboard.
func buildCollectionListKeyboard(temp *entities.ErrorCollection, collections []entities.ErrorCollection) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if temp != nil && len(temp.Questions) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 保存本次错题", buildSaveCallback()),
			tgbotapi.NewInlineKeyboardButtonData("💾 保存并练习", buildSavePracticeCallback()),
		))
	}

	for i, c := range collections {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("▶️ %d. %s (%d)", i+1, c.Name, len(c.Questions)),
				buildCollectionCallback(collectionStart, c.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData("✏️", buildCollectionCallback(collectionRename, c.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", buildCollectionCallback(collectionDelete, c.ID)),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ 回到题目", buildNormalCallback()),
	))

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildCompletionKeyboard builds the keyboard of the quiz-complete prompt.
func buildCompletionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 保存并练习错题", buildSavePracticeCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 仅保存", buildSaveCallback()),
			tgbotapi.NewInlineKeyboardButtonData("继续答题", buildIgnoreCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 输入新题目", buildBackCallback()),
		),
	)
}
