package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/parser"
)

var (
	ErrEmptyInput         = errors.New("empty input")
	ErrNoQuestions        = errors.New("no questions could be parsed")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionEmpty    = errors.New("collection has no questions")
)

// Mode is what the workspace is currently showing.
type Mode string

const (
	ModeInput          Mode = "input"
	ModeNormal         Mode = "normal"
	ModeCollectionList Mode = "collection_list"
	ModeErrorBook      Mode = "error_book"
)

// LoadResult describes the outcome of parsing pasted text.
type LoadResult struct {
	Strategy parser.Strategy `json:"strategy"`
	Total    int             `json:"total"`
	Dropped  int             `json:"dropped"`
}

// SubmitResult is the feedback shown after an answer is graded.
type SubmitResult struct {
	Correct       bool              `json:"correct"`
	Question      entities.Question `json:"question"`
	Index         int               `json:"index"`
	CorrectCount  int               `json:"correctCount"`
	CheckComplete bool              `json:"-"`
}

// CompletionOffer is shown when a normal-mode run is finished with misses to save.
type CompletionOffer struct {
	Total             int `json:"total"`
	CorrectCount      int `json:"correctCount"`
	SessionErrorCount int `json:"sessionErrorCount"`
}

// View is everything a presentation layer needs to render the current screen.
type View struct {
	Mode              Mode               `json:"mode"`
	Question          *entities.Question `json:"question,omitempty"`
	Index             int                `json:"index"`
	Total             int                `json:"total"`
	CorrectCount      int                `json:"correctCount"`
	Status            []QuestionStatus   `json:"status"`
	State             SessionState       `json:"state"`
	CollectionName    string             `json:"collectionName,omitempty"`
	SessionErrorCount int                `json:"sessionErrorCount"`
	TotalErrorCount   int                `json:"totalErrorCount"`
}

// Workspace ties one quiz session to one error book and drives the switching
// between pasted questions and error collections. All methods are safe for
// concurrent use.
type Workspace struct {
	mu      sync.Mutex
	session *QuizSession
	book    *ErrorBookStore
	logger  *zap.Logger

	original          []entities.Question
	saved             *SessionSnapshot
	completionOffered bool
}

func NewWorkspace(book *ErrorBookStore, logger *zap.Logger) *Workspace {
	return &Workspace{
		session: NewQuizSession(book),
		book:    book,
		logger:  logger,
	}
}

// Book exposes the error book for collection management.
func (w *Workspace) Book() *ErrorBookStore {
	return w.book
}

// Load parses text, keeps the gradable questions and starts a normal-mode run.
func (w *Workspace) Load(ctx context.Context, text string) (LoadResult, error) {
	if strings.TrimSpace(text) == "" {
		return LoadResult{}, ErrEmptyInput
	}

	seg := parser.Segment(text)
	res := LoadResult{Strategy: seg.Strategy}

	questions := make([]entities.Question, 0, len(seg.Blocks))
	for _, block := range seg.Blocks {
		q := parser.ParseBlock(block)
		if !q.Usable() {
			res.Dropped++
			continue
		}
		questions = append(questions, q)
	}
	res.Total = len(questions)

	if len(questions) == 0 {
		w.logger.Debug("no usable questions",
			zap.String("strategy", string(seg.Strategy)),
			zap.Int("blocks", len(seg.Blocks)),
		)
		return res, ErrNoQuestions
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.original = questions
	w.saved = nil
	w.completionOffered = false
	w.switchToNormal()

	w.logger.Info("questions loaded",
		zap.String("strategy", string(seg.Strategy)),
		zap.Int("total", res.Total),
		zap.Int("dropped", res.Dropped),
	)

	return res, nil
}

// SwitchToNormal leaves the error book and resumes the saved normal-mode run,
// or starts over from the pasted questions. It returns false when nothing was pasted yet.
func (w *Workspace) SwitchToNormal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.switchToNormal()
}

func (w *Workspace) switchToNormal() bool {
	if len(w.original) == 0 {
		return false
	}

	w.book.SetErrorBookMode(false)

	if w.saved != nil && w.session.Restore(w.saved.Questions, w.saved.CurrentIndex, w.saved.CorrectCount) {
		return true
	}

	w.saved = nil
	w.session.Init(w.original)
	return true
}

// SwitchToErrorBook saves the normal-mode run and opens the collection list.
// It reports whether the error book has anything to show.
func (w *Workspace) SwitchToErrorBook() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.switchToErrorBook()
}

func (w *Workspace) switchToErrorBook() bool {
	if !w.book.IsErrorBookMode() && len(w.original) > 0 {
		w.saved = w.session.Snapshot()
	}

	w.book.SetErrorBookMode(true)
	w.book.SetCollectionListMode(true)
	w.book.ClearSelection()

	return len(w.book.Collections()) > 0 || w.book.SessionErrorCount() > 0
}

// StartCollection practices the questions of collection id in error-book mode.
func (w *Workspace) StartCollection(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startCollection(id)
}

func (w *Workspace) startCollection(id string) error {
	if !w.book.SelectCollection(id) {
		return fmt.Errorf("start collection %q: %w", id, ErrCollectionNotFound)
	}

	questions := w.book.CurrentCollectionQuestions()
	if len(questions) == 0 {
		w.book.SetCollectionListMode(true)
		return fmt.Errorf("start collection %q: %w", id, ErrCollectionEmpty)
	}

	if !w.book.IsErrorBookMode() && len(w.original) > 0 {
		w.saved = w.session.Snapshot()
	}
	w.book.SetErrorBookMode(true)
	w.book.SetCollectionListMode(false)
	// SetErrorBookMode(true) keeps the selection.
	w.session.Init(questions)

	return nil
}

// BackToCollectionList returns from practicing a collection to the list.
func (w *Workspace) BackToCollectionList() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.book.SetCollectionListMode(true)
	w.book.ClearSelection()
}

// SaveSessionErrors promotes the session misses to a permanent collection.
func (w *Workspace) SaveSessionErrors(ctx context.Context) (*entities.ErrorCollection, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.book.SaveSessionAsCollection(ctx)
	if c == nil {
		return nil, false
	}

	w.logger.Info("session errors saved",
		zap.String("collection_id", c.ID),
		zap.Int("questions", len(c.Questions)),
	)
	return c, true
}

// SaveAndPractice saves the session misses and immediately practices them.
func (w *Workspace) SaveAndPractice(ctx context.Context) (*entities.ErrorCollection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.book.SaveSessionAsCollection(ctx)
	if c == nil {
		return nil, ErrCollectionEmpty
	}

	if err := w.startCollection(c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// BackToInput forgets the saved run and leaves every mode.
func (w *Workspace) BackToInput() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.saved = nil
	w.completionOffered = false
	w.book.SetErrorBookMode(false)
	w.book.SetCollectionListMode(false)
}

// Reset drops the pasted questions and the running session.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.original = nil
	w.saved = nil
	w.completionOffered = false
	w.session.Init(nil)
	w.book.SetErrorBookMode(false)
}

func (w *Workspace) SetAnswer(letter string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.SetAnswer(letter)
}

// Submit grades the current question. CheckComplete is set when the caller
// should schedule a CompletionOffer check.
func (w *Workspace) Submit(ctx context.Context) (SubmitResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	correct, ok := w.session.Submit(ctx)
	if !ok {
		return SubmitResult{}, false
	}

	q, _ := w.session.Current()
	res := SubmitResult{
		Correct:      correct,
		Question:     q,
		Index:        w.session.CurrentIndex(),
		CorrectCount: w.session.CorrectCount(),
	}

	if !w.book.IsErrorBookMode() && !w.completionOffered && w.session.IsComplete() {
		w.completionOffered = true
		res.CheckComplete = true
	}

	return res, true
}

// CompletionOffer re-checks the completion conditions at call time.
func (w *Workspace) CompletionOffer() (CompletionOffer, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.book.IsErrorBookMode() || len(w.original) == 0 {
		return CompletionOffer{}, false
	}

	total := w.session.Total()
	if total == 0 || w.session.AnsweredCount() != total {
		return CompletionOffer{}, false
	}

	sessionErrors := w.book.SessionErrorCount()
	if sessionErrors == 0 {
		return CompletionOffer{}, false
	}

	return CompletionOffer{
		Total:             total,
		CorrectCount:      w.session.CorrectCount(),
		SessionErrorCount: sessionErrors,
	}, true
}

func (w *Workspace) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Next()
}

func (w *Workspace) Prev() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Prev()
}

func (w *Workspace) GoTo(index int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.GoTo(index)
}

func (w *Workspace) IsOptionSelected(letter string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.IsOptionSelected(letter)
}

// Mode reports what is being shown.
func (w *Workspace) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode()
}

func (w *Workspace) mode() Mode {
	switch {
	case w.book.IsCollectionListMode():
		return ModeCollectionList
	case w.book.IsErrorBookMode():
		return ModeErrorBook
	case len(w.original) > 0 && w.session.Total() > 0:
		return ModeNormal
	default:
		return ModeInput
	}
}

// View returns a consistent copy of the current screen state.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Mode:              w.mode(),
		Index:             w.session.CurrentIndex(),
		Total:             w.session.Total(),
		CorrectCount:      w.session.CorrectCount(),
		Status:            w.session.Status(),
		State:             w.session.State(),
		SessionErrorCount: w.book.SessionErrorCount(),
		TotalErrorCount:   w.book.TotalErrorCount(),
	}

	if q, ok := w.session.Current(); ok && v.Mode != ModeInput && v.Mode != ModeCollectionList {
		v.Question = &q
	}
	if c, ok := w.book.CurrentCollection(); ok {
		v.CollectionName = c.Name
	}

	return v
}
