package entities

import (
	"slices"
	"strings"
)

// OptionPlaceholder is the text of an option the pasted question did not provide.
const OptionPlaceholder = "未提供选项"

// OptionLabels lists the supported option labels in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

// Option is a single lettered answer option.
type Option struct {
	Label string `json:"label"` // one of A, B, C, D
	Text  string `json:"text"`
}

// Question is one parsed multiple-choice question together with the user's answer state.
type Question struct {
	Number           string   `json:"number"`           // leading number token, e.g. "1."
	Score            string   `json:"score"`            // numeric part of "(5分)"
	Title            string   `json:"title"`            // question stem
	Options          []Option `json:"options"`          // always A, B, C, D after parsing
	Answer           string   `json:"answer"`           // canonical ascending letters
	IsMultipleChoice bool     `json:"isMultipleChoice"` // len(Answer) > 1
	UserAnswer       string   `json:"userAnswer"`       // empty when unanswered
	UserAnswers      []string `json:"userAnswers"`      // nil for single choice
	IsCorrect        *bool    `json:"isCorrect"`        // nil until graded
}

// IsValidLabel reports whether label is one of A, B, C, D.
func IsValidLabel(label string) bool {
	return slices.Contains(OptionLabels, label)
}

// CanonicalAnswer uppercases letters, drops anything outside A-D and duplicates,
// and returns the remaining letters in ascending order.
func CanonicalAnswer(raw string) string {
	var seen [4]bool
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'D' {
			seen[r-'A'] = true
		}
	}

	var sb strings.Builder
	for i, ok := range seen {
		if ok {
			sb.WriteByte(byte('A' + i))
		}
	}
	return sb.String()
}

// Usable reports whether the question has an answer key and can be graded.
func (q *Question) Usable() bool {
	return q.Answer != ""
}

// ResetAnswerState clears the user's answer and grading.
func (q *Question) ResetAnswerState() {
	q.IsMultipleChoice = len(q.Answer) > 1
	q.UserAnswer = ""
	q.IsCorrect = nil
	q.UserAnswers = nil
	if q.IsMultipleChoice {
		q.UserAnswers = []string{}
	}
}

// Answered reports whether the user has recorded any selection.
func (q *Question) Answered() bool {
	if q.IsMultipleChoice {
		return len(q.UserAnswers) > 0
	}
	return q.UserAnswer != ""
}

// Grade compares the recorded selection with the answer key.
// Multiple choice requires the selected set to equal the answer letters exactly.
func (q *Question) Grade() bool {
	if !q.IsMultipleChoice {
		return q.UserAnswer == q.Answer
	}

	if len(q.UserAnswers) != len(q.Answer) {
		return false
	}
	for _, letter := range q.UserAnswers {
		if !strings.Contains(q.Answer, letter) {
			return false
		}
	}
	return true
}

// SameAs reports whether two questions share the (title, answer) identity used by the error book.
func (q *Question) SameAs(other *Question) bool {
	return q.Title == other.Title && q.Answer == other.Answer
}

// Clone returns a deep copy of the question.
func (q *Question) Clone() Question {
	c := *q
	c.Options = slices.Clone(q.Options)
	if q.UserAnswers != nil {
		c.UserAnswers = slices.Clone(q.UserAnswers)
	}
	if q.IsCorrect != nil {
		v := *q.IsCorrect
		c.IsCorrect = &v
	}
	return c
}

// Snapshot returns the copy stored in an error collection: answer state is reset
// except for the user's last answer, and the question is marked incorrect.
func (q *Question) Snapshot() Question {
	c := q.Clone()
	c.IsMultipleChoice = len(c.Answer) > 1
	c.IsCorrect = BoolPtr(false)
	c.UserAnswers = nil
	if c.IsMultipleChoice {
		c.UserAnswers = splitLetters(c.UserAnswer)
	}
	return c
}

// CloneQuestions deep-copies a question list.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i := range qs {
		out[i] = qs[i].Clone()
	}
	return out
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

func splitLetters(s string) []string {
	letters := make([]string, 0, len(s))
	for _, r := range s {
		letters = append(letters, string(r))
	}
	return letters
}
