package service

import (
	"context"
	"slices"
	"strings"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
)

// SessionState is derived from the session contents on every call.
type SessionState string

const (
	StateEmpty     SessionState = "empty"
	StateActive    SessionState = "active"
	StateCompleted SessionState = "completed"
)

// QuestionStatus is one entry of the answer sheet.
type QuestionStatus struct {
	Answered  bool  `json:"answered"`
	IsCorrect *bool `json:"isCorrect"`
}

// SessionSnapshot is a deep copy of a session that can be restored later.
type SessionSnapshot struct {
	Questions    []entities.Question
	CurrentIndex int
	CorrectCount int
}

// QuizSession holds the live question list, the current position and the score.
// It is not safe for concurrent use; Workspace serializes access.
type QuizSession struct {
	recorder ErrorRecorder

	questions    []entities.Question
	currentIndex int
	correctCount int
}

func NewQuizSession(recorder ErrorRecorder) *QuizSession {
	return &QuizSession{recorder: recorder}
}

// Init replaces the session contents with a copy of questions and resets all answers.
// It reports whether the session has anything to ask.
func (s *QuizSession) Init(questions []entities.Question) bool {
	s.questions = entities.CloneQuestions(questions)
	for i := range s.questions {
		s.questions[i].ResetAnswerState()
	}
	s.currentIndex = 0
	s.correctCount = 0

	return len(s.questions) > 0
}

func (s *QuizSession) current() *entities.Question {
	if len(s.questions) == 0 {
		return nil
	}
	return &s.questions[s.currentIndex]
}

// SetAnswer records letter for the current question. Multiple choice toggles the letter.
func (s *QuizSession) SetAnswer(letter string) bool {
	q := s.current()
	if q == nil {
		return false
	}

	letter = strings.ToUpper(strings.TrimSpace(letter))
	if !entities.IsValidLabel(letter) {
		return false
	}

	if !q.IsMultipleChoice {
		q.UserAnswer = letter
		return true
	}

	if i := slices.Index(q.UserAnswers, letter); i != -1 {
		q.UserAnswers = slices.Delete(q.UserAnswers, i, i+1)
	} else {
		q.UserAnswers = append(q.UserAnswers, letter)
	}
	slices.Sort(q.UserAnswers)
	q.UserAnswer = strings.Join(q.UserAnswers, "")

	return true
}

// Submit grades the current question and reports the result to the error book.
// It returns ok=false when the question has no recorded answer.
func (s *QuizSession) Submit(ctx context.Context) (correct, ok bool) {
	q := s.current()
	if q == nil || !q.Answered() {
		return false, false
	}

	wasCorrect := q.IsCorrect != nil && *q.IsCorrect
	correct = q.Grade()
	q.IsCorrect = entities.BoolPtr(correct)

	switch {
	case correct && !wasCorrect:
		s.correctCount++
	case !correct && wasCorrect:
		s.correctCount--
	}

	if s.recorder != nil {
		if s.recorder.IsErrorBookMode() {
			s.recorder.UpdateErrorStatus(ctx, q, correct)
		} else if !correct {
			s.recorder.RecordMiss(ctx, q)
		}
	}

	return correct, true
}

func (s *QuizSession) Next() bool {
	return s.GoTo(s.currentIndex + 1)
}

func (s *QuizSession) Prev() bool {
	return s.GoTo(s.currentIndex - 1)
}

// GoTo jumps to index. Out-of-range indexes leave the position unchanged.
func (s *QuizSession) GoTo(index int) bool {
	if index < 0 || index >= len(s.questions) {
		return false
	}
	s.currentIndex = index
	return true
}

// Status returns one entry per question, in order.
func (s *QuizSession) Status() []QuestionStatus {
	out := make([]QuestionStatus, len(s.questions))
	for i := range s.questions {
		q := &s.questions[i]
		out[i] = QuestionStatus{Answered: q.Answered()}
		if q.IsCorrect != nil {
			out[i].IsCorrect = entities.BoolPtr(*q.IsCorrect)
		}
	}
	return out
}

func (s *QuizSession) Snapshot() *SessionSnapshot {
	return &SessionSnapshot{
		Questions:    entities.CloneQuestions(s.questions),
		CurrentIndex: s.currentIndex,
		CorrectCount: s.correctCount,
	}
}

// Restore loads a copy of questions with their answer state kept as is.
func (s *QuizSession) Restore(questions []entities.Question, index, correctCount int) bool {
	if len(questions) == 0 || index < 0 || index >= len(questions) || correctCount < 0 {
		return false
	}

	s.questions = entities.CloneQuestions(questions)
	s.currentIndex = index
	s.correctCount = correctCount
	return true
}

// Current returns a copy of the question at the current position.
func (s *QuizSession) Current() (entities.Question, bool) {
	q := s.current()
	if q == nil {
		return entities.Question{}, false
	}
	return q.Clone(), true
}

func (s *QuizSession) CurrentIndex() int { return s.currentIndex }

func (s *QuizSession) Total() int { return len(s.questions) }

func (s *QuizSession) CorrectCount() int { return s.correctCount }

// IsOptionSelected reports whether letter is part of the current selection.
func (s *QuizSession) IsOptionSelected(letter string) bool {
	q := s.current()
	if q == nil {
		return false
	}
	if q.IsMultipleChoice {
		return slices.Contains(q.UserAnswers, letter)
	}
	return q.UserAnswer == letter
}

// AnsweredCount returns how many questions have a recorded selection.
func (s *QuizSession) AnsweredCount() int {
	n := 0
	for i := range s.questions {
		if s.questions[i].Answered() {
			n++
		}
	}
	return n
}

// IsComplete reports whether the session sits on its last question with every question answered.
func (s *QuizSession) IsComplete() bool {
	n := len(s.questions)
	return n > 0 && s.currentIndex == n-1 && s.AnsweredCount() == n
}

func (s *QuizSession) State() SessionState {
	switch {
	case len(s.questions) == 0:
		return StateEmpty
	case s.IsComplete():
		return StateCompleted
	default:
		return StateActive
	}
}
