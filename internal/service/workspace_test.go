package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/parser"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/storage"
)

const threeQuestions = `1. 2+2=? A.3 B.4 C.5 D.6 答案：B
2. 中国的首都是？ A.上海 B.北京 C.广州 D.深圳 答案：B
3. 偶数有哪些 A.1 B.2 C.3 D.4 答案：BD`

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return NewWorkspace(newTestStore(t, storage.NewMemoryKV()), zap.NewNop())
}

func TestWorkspaceLoad(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	if _, err := w.Load(ctx, "  \n "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("blank input err = %v, want ErrEmptyInput", err)
	}
	if _, err := w.Load(ctx, "just prose"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("prose err = %v, want ErrNoQuestions", err)
	}
	if w.Mode() != ModeInput {
		t.Fatalf("mode = %q, want input", w.Mode())
	}

	res, err := w.Load(ctx, threeQuestions)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Total != 3 || res.Dropped != 0 || res.Strategy != parser.StrategyAnswer {
		t.Fatalf("result = %+v", res)
	}

	v := w.View()
	if v.Mode != ModeNormal || v.Total != 3 || v.Index != 0 || v.Question == nil {
		t.Fatalf("view = %+v", v)
	}
	if v.Question.Title != "2+2=?" {
		t.Fatalf("first question = %q", v.Question.Title)
	}
}

func TestWorkspaceLoadDropsUnanswerableBlocks(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	res, err := w.Load(ctx, "1. 甲(A) A.1 B.2\n2. 乙 A.1 B.2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Strategy != parser.StrategyNumber || res.Total != 1 || res.Dropped != 1 {
		t.Fatalf("result = %+v", res)
	}

	res, err = w.Load(ctx, "1. 甲 A.1 B.2\n2. 乙 A.1 B.2")
	if !errors.Is(err, ErrNoQuestions) || res.Dropped != 2 {
		t.Fatalf("Load() = %+v, %v; want ErrNoQuestions with 2 dropped", res, err)
	}
	if v := w.View(); v.Total != 1 {
		t.Fatalf("failed load must keep the previous run, total = %d", v.Total)
	}
}

func TestWorkspaceSubmitSchedulesCompletionOnce(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	if _, err := w.Load(ctx, threeQuestions); err != nil {
		t.Fatal(err)
	}

	w.SetAnswer("B")
	res, ok := w.Submit(ctx)
	if !ok || !res.Correct || res.CheckComplete {
		t.Fatalf("first submit = %+v, %v", res, ok)
	}

	w.Next()
	w.SetAnswer("A")
	if res, _ := w.Submit(ctx); res.Correct {
		t.Fatalf("second answer should be wrong")
	}

	w.Next()
	w.SetAnswer("B")
	w.SetAnswer("D")
	res, _ = w.Submit(ctx)
	if !res.CheckComplete {
		t.Fatalf("last answer should trigger a completion check")
	}
	if res, _ := w.Submit(ctx); res.CheckComplete {
		t.Fatalf("completion check is offered once per run")
	}

	offer, ok := w.CompletionOffer()
	if !ok || offer.Total != 3 || offer.CorrectCount != 2 || offer.SessionErrorCount != 1 {
		t.Fatalf("offer = %+v, %v", offer, ok)
	}
}

func TestWorkspaceCompletionOfferRevalidates(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	if _, err := w.Load(ctx, "1. q A.1 B.2 C.3 D.4 答案：A"); err != nil {
		t.Fatal(err)
	}

	w.SetAnswer("A")
	if res, _ := w.Submit(ctx); !res.CheckComplete {
		t.Fatalf("expected a completion check")
	}
	if _, ok := w.CompletionOffer(); ok {
		t.Fatalf("no offer without session errors")
	}

	w.SetAnswer("B")
	w.Submit(ctx)
	w.SwitchToErrorBook()
	if _, ok := w.CompletionOffer(); ok {
		t.Fatalf("no offer once the user left for the error book")
	}

	w.SwitchToNormal()
	if _, ok := w.CompletionOffer(); !ok {
		t.Fatalf("offer should be available again in normal mode")
	}
}

func TestWorkspaceErrorBookRoundTrip(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	if _, err := w.Load(ctx, threeQuestions); err != nil {
		t.Fatal(err)
	}

	w.SetAnswer("A")
	w.Submit(ctx)
	w.Next()

	if !w.SwitchToErrorBook() {
		t.Fatalf("error book should not be empty after a miss")
	}
	if w.Mode() != ModeCollectionList {
		t.Fatalf("mode = %q, want collection list", w.Mode())
	}

	c, ok := w.SaveSessionErrors(ctx)
	if !ok || len(c.Questions) != 1 {
		t.Fatalf("saved = %+v, %v", c, ok)
	}

	if err := w.StartCollection(c.ID); err != nil {
		t.Fatalf("StartCollection() error = %v", err)
	}
	v := w.View()
	if v.Mode != ModeErrorBook || v.Total != 1 || v.CollectionName != c.Name {
		t.Fatalf("view = %+v", v)
	}

	w.SetAnswer("B")
	if res, _ := w.Submit(ctx); !res.Correct {
		t.Fatalf("answer should be correct")
	}
	if got, _ := w.Book().Collection(c.ID); len(got.Questions) != 0 {
		t.Fatalf("correct answer should graduate the question")
	}
	if w.Book().SessionErrorCount() != 0 {
		t.Fatalf("error-book practice must not record session misses")
	}

	if !w.SwitchToNormal() {
		t.Fatalf("switch to normal failed")
	}
	v = w.View()
	if v.Mode != ModeNormal || v.Index != 1 || v.Total != 3 {
		t.Fatalf("normal run not resumed: %+v", v)
	}
	if !v.Status[0].Answered {
		t.Fatalf("resumed run lost its answers")
	}
}

func TestWorkspaceStartCollectionErrors(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)

	if err := w.StartCollection("missing"); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("err = %v, want ErrCollectionNotFound", err)
	}

	empty := w.Book().CreateCollection(ctx, "empty", nil)
	if err := w.StartCollection(empty.ID); !errors.Is(err, ErrCollectionEmpty) {
		t.Fatalf("err = %v, want ErrCollectionEmpty", err)
	}
}

func TestWorkspaceSaveAndPractice(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	if _, err := w.Load(ctx, threeQuestions); err != nil {
		t.Fatal(err)
	}

	if _, err := w.SaveAndPractice(ctx); !errors.Is(err, ErrCollectionEmpty) {
		t.Fatalf("err = %v, want ErrCollectionEmpty", err)
	}

	w.SetAnswer("C")
	w.Submit(ctx)

	c, err := w.SaveAndPractice(ctx)
	if err != nil {
		t.Fatalf("SaveAndPractice() error = %v", err)
	}
	if w.Mode() != ModeErrorBook {
		t.Fatalf("mode = %q, want error book", w.Mode())
	}
	if cur, ok := w.Book().CurrentCollection(); !ok || cur.ID != c.ID {
		t.Fatalf("new collection should be selected")
	}
}

func TestWorkspaceBackToInputAndReset(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t)
	if _, err := w.Load(ctx, threeQuestions); err != nil {
		t.Fatal(err)
	}

	w.Next()
	w.SwitchToErrorBook()
	w.BackToInput()
	if w.Book().IsErrorBookMode() || w.Book().IsCollectionListMode() {
		t.Fatalf("BackToInput must leave every mode")
	}

	// The saved snapshot is gone, so the run starts over.
	w.SwitchToNormal()
	if v := w.View(); v.Index != 0 {
		t.Fatalf("index = %d, want a fresh run", v.Index)
	}

	w.Reset()
	if w.Mode() != ModeInput || w.SwitchToNormal() {
		t.Fatalf("reset workspace must have nothing to resume")
	}
}
