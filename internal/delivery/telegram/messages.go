// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

const (
	msgWelcome = "<b>刷题助手</b>\n\n" +
		"直接把题目文本粘贴发给我，我会把它整理成选择题。\n" +
		"支持“答案：B”“正确答案：AC”、括号内答案“(AC)”等常见格式。\n\n" +
		"答错的题会进入本次会话错题，可以保存成错题集反复练习。\n\n" +
		msgCommands

	msgCommands = "/errors — 错题本\n" +
		"/save — 保存本次会话错题\n" +
		"/normal — 回到题目\n" +
		"/reset — 清空当前题目\n" +
		"/help — 帮助"

	msgInternalError      = "出了点问题，请稍后再试。"
	msgUnknownCommand     = "未知命令。\n\n" + msgCommands
	msgEmptyInput         = "请先粘贴题目文本！"
	msgNoQuestions        = "未能解析出有效题目，请检查格式！"
	msgNoQuiz             = "还没有题目，请先粘贴题目文本。"
	msgNoAnswer           = "请先选择答案"
	msgEmptyErrorBook     = "错题本是空的。答错的题目会自动记录在这里。"
	msgNothingToSave      = "本次会话没有错题需要保存。"
	msgCollectionNotFound = "错题集不存在或已被删除"
	msgCollectionEmpty    = "此错题集中没有题目"
	msgRenamePrompt       = "请发送错题集的新名称："
	msgRenameFailed       = "无法重命名该错题集。"
	msgRenamed            = "已重命名为 %s"
	msgDeleted            = "错题集已删除"
	msgSaved              = "已保存为 %s（%d 题）"
	msgFirstQuestion      = "已经是第一题"
	msgLastQuestion       = "已经是最后一题"
	msgBackToInput        = "可以粘贴新的题目了。"
	msgReset              = "已清空当前题目，可以粘贴新的题目了。"
	msgCorrect            = "✅ 回答正确！"
	msgIncorrect          = "❌ 回答错误，正确答案：%s"
)

var strategyNames = map[string]string{
	"answer":     "按答案标记",
	"number":     "按题号",
	"blank_line": "按空行",
}

func formatLoaded(res service.LoadResult) string {
	text := fmt.Sprintf("已解析 %d 道题（%s拆分）", res.Total, strategyNames[string(res.Strategy)])
	if res.Dropped > 0 {
		text += fmt.Sprintf("，%d 段因缺少答案被跳过", res.Dropped)
	}
	return text
}

func statusGlyph(st service.QuestionStatus) string {
	switch {
	case !st.Answered:
		return "⬜"
	case st.IsCorrect == nil:
		return "🔵"
	case *st.IsCorrect:
		return "✅"
	default:
		return "❌"
	}
}

// formatQuestion renders the current question of a view. feedback is shown below
// the options when not empty.
func formatQuestion(v service.View, feedback string) string {
	if v.Question == nil {
		return msgNoQuiz
	}
	q := v.Question

	var sb strings.Builder

	if v.Mode == service.ModeErrorBook {
		sb.WriteString("📕 " + bold(v.CollectionName) + "\n")
	}

	header := fmt.Sprintf("第 %d/%d 题", v.Index+1, v.Total)
	if q.IsMultipleChoice {
		header += "（多选）"
	}
	if q.Score != "" {
		header += fmt.Sprintf("（%s分）", q.Score)
	}
	sb.WriteString(bold(header))
	sb.WriteString("\n\n")

	title := q.Title
	if q.Number != "" {
		title = q.Number + " " + title
	}
	sb.WriteString(esc(title))
	sb.WriteString("\n\n")

	for _, opt := range q.Options {
		mark := "  "
		if isSelected(q, opt.Label) {
			mark = "👉"
		}
		sb.WriteString(fmt.Sprintf("%s %s. %s\n", mark, opt.Label, esc(opt.Text)))
	}

	if feedback != "" {
		sb.WriteString("\n")
		sb.WriteString(feedback)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	for _, st := range v.Status {
		sb.WriteString(statusGlyph(st))
	}
	sb.WriteString(fmt.Sprintf("\n答对 %d 题", v.CorrectCount))
	if v.Mode == service.ModeNormal && v.SessionErrorCount > 0 {
		sb.WriteString(fmt.Sprintf(" · 本次错题 %d", v.SessionErrorCount))
	}

	return sb.String()
}

func isSelected(q *entities.Question, label string) bool {
	if q.IsMultipleChoice {
		return slices.Contains(q.UserAnswers, label)
	}
	return q.UserAnswer == label
}

func formatFeedback(res service.SubmitResult) string {
	if res.Correct {
		return msgCorrect
	}
	return fmt.Sprintf(msgIncorrect, esc(res.Question.Answer))
}

// formatCollectionList renders the error book overview.
func formatCollectionList(temp *entities.ErrorCollection, collections []entities.ErrorCollection, total int) string {
	var sb strings.Builder

	sb.WriteString(bold("📚 错题本"))
	sb.WriteString(fmt.Sprintf("\n共 %d 道错题\n\n", total))

	if temp != nil && len(temp.Questions) > 0 {
		sb.WriteString(fmt.Sprintf("🕘 %s：%d 题（未保存）\n\n", esc(temp.Name), len(temp.Questions)))
	}

	for i, c := range collections {
		sb.WriteString(fmt.Sprintf("%d. %s · %d 题 · %s\n", i+1, bold(c.Name), len(c.Questions), esc(c.DateCreated)))
	}

	return sb.String()
}

func formatCompletion(offer service.CompletionOffer) string {
	return fmt.Sprintf(
		"%s\n\n共 %d 题，答对 %d 题，本次错题 %d 道。\n要把错题保存成错题集吗？",
		bold("🎉 答题完成"),
		offer.Total,
		offer.CorrectCount,
		offer.SessionErrorCount,
	)
}
