package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/storage"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, storage.ErrStorage
}

func (failingKV) Set(context.Context, string, string) error { return storage.ErrStorage }

func (failingKV) Remove(context.Context, string) error { return storage.ErrStorage }

func newTestStore(t *testing.T, kv KeyValueStore) *ErrorBookStore {
	t.Helper()

	s := NewErrorBookStore(kv, "test", zap.NewNop())

	clock := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("error_%d", seq)
	}

	s.Init(context.Background())
	return s
}

func missed(title, answer, userAnswer string) *entities.Question {
	q := question(title, answer)
	q.UserAnswer = userAnswer
	q.IsCorrect = entities.BoolPtr(false)
	return &q
}

func TestRecordMissDedupesByTitleAndAnswer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	s.RecordMiss(ctx, missed("q", "A", "B"))
	s.RecordMiss(ctx, missed("q", "A", "C"))
	s.RecordMiss(ctx, missed("q", "B", "C"))

	temp, ok := s.TemporaryCollection()
	if !ok || !temp.IsTemporary || temp.ID != entities.TemporaryCollectionID {
		t.Fatalf("temporary collection missing: %+v", temp)
	}
	if s.SessionErrorCount() != 2 {
		t.Fatalf("session error count = %d, want 2", s.SessionErrorCount())
	}
	if temp.Questions[0].UserAnswer != "B" {
		t.Fatalf("first miss keeps its answer, got %q", temp.Questions[0].UserAnswer)
	}
	if temp.Questions[0].IsCorrect == nil || *temp.Questions[0].IsCorrect {
		t.Fatalf("snapshot must be marked incorrect")
	}
}

func TestRecordMissStoresIndependentCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	q := missed("q", "AB", "A")
	q.UserAnswers = []string{"A"}
	s.RecordMiss(ctx, q)

	q.UserAnswers[0] = "D"
	q.Options[0].Text = "changed"

	temp, _ := s.TemporaryCollection()
	if temp.Questions[0].UserAnswers[0] != "A" || temp.Questions[0].Options[0].Text != "a" {
		t.Fatalf("stored snapshot shares memory with the session question")
	}
}

func TestUpdateErrorStatusGraduatesOnlyMatchingEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	c := s.CreateCollection(ctx, "set", []entities.Question{
		*missed("q1", "A", "B"),
		*missed("q2", "B", "A"),
		*missed("q3", "C", "A"),
	})

	// No selection: nothing happens.
	s.UpdateErrorStatus(ctx, missed("q2", "B", "B"), true)
	if got, _ := s.Collection(c.ID); len(got.Questions) != 3 {
		t.Fatalf("update without selection changed the collection")
	}

	if !s.SelectCollection(c.ID) {
		t.Fatalf("select failed")
	}
	s.UpdateErrorStatus(ctx, missed("q2", "B", "B"), true)

	got, _ := s.Collection(c.ID)
	if len(got.Questions) != 2 || got.Questions[0].Title != "q1" || got.Questions[1].Title != "q3" {
		t.Fatalf("graduation removed the wrong entries: %+v", got.Questions)
	}

	s.UpdateErrorStatus(ctx, missed("q3", "C", "D"), false)
	got, _ = s.Collection(c.ID)
	if got.Questions[1].UserAnswer != "D" {
		t.Fatalf("wrong answer should update the stored answer, got %q", got.Questions[1].UserAnswer)
	}
}

func TestSaveSessionAsCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	if s.SaveSessionAsCollection(ctx) != nil {
		t.Fatalf("saving without misses should return nil")
	}

	s.RecordMiss(ctx, missed("q1", "A", "B"))
	s.RecordMiss(ctx, missed("q2", "CD", "C"))
	before, _ := s.TemporaryCollection()
	totalBefore := s.TotalErrorCount()

	c := s.SaveSessionAsCollection(ctx)
	if c == nil {
		t.Fatalf("expected a new collection")
	}
	if c.IsTemporary || c.ID == entities.TemporaryCollectionID {
		t.Fatalf("saved collection must be permanent: %+v", c)
	}
	if c.Name != c.DateCreated {
		t.Fatalf("name = %q, want creation date %q", c.Name, c.DateCreated)
	}
	if len(c.Questions) != len(before.Questions) {
		t.Fatalf("saved %d questions, want %d", len(c.Questions), len(before.Questions))
	}
	for i := range c.Questions {
		if !c.Questions[i].SameAs(&before.Questions[i]) || c.Questions[i].UserAnswer != before.Questions[i].UserAnswer {
			t.Fatalf("question %d differs: %+v vs %+v", i, c.Questions[i], before.Questions[i])
		}
	}

	if s.SessionErrorCount() != 0 {
		t.Fatalf("session error count = %d after save", s.SessionErrorCount())
	}
	if _, ok := s.TemporaryCollection(); !ok {
		t.Fatalf("temporary collection must be emptied, not deleted")
	}
	if s.TotalErrorCount() != totalBefore+2 {
		t.Fatalf("total = %d, want %d", s.TotalErrorCount(), totalBefore+2)
	}
}

func TestCollectionsPersistAcrossInit(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()

	s := newTestStore(t, kv)
	s.RecordMiss(ctx, missed("q1", "A", "B"))
	saved := s.SaveSessionAsCollection(ctx)
	s.Rename(ctx, saved.ID, "第一章")

	reloaded := newTestStore(t, kv)
	got, ok := reloaded.Collection(saved.ID)
	if !ok || got.Name != "第一章" || len(got.Questions) != 1 {
		t.Fatalf("reloaded collection = %+v, %v", got, ok)
	}

	other := NewErrorBookStore(kv, "other", zap.NewNop())
	other.Init(ctx)
	if len(other.Collections()) != 0 {
		t.Fatalf("namespaces must not share collections")
	}
}

func TestInitMigratesLegacyQuestions(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()

	legacy, _ := json.Marshal([]entities.Question{*missed("old1", "A", "B"), *missed("old2", "BC", "B")})
	_ = kv.Set(ctx, "test:"+LegacyQuestionsKey, string(legacy))

	s := newTestStore(t, kv)

	collections := s.Collections()
	if len(collections) != 1 {
		t.Fatalf("expected one migrated collection, got %d", len(collections))
	}
	c := collections[0]
	if c.Name != legacyCollectionName+" "+c.DateCreated || len(c.Questions) != 2 {
		t.Fatalf("migrated collection = %+v", c)
	}
	if c.Questions[1].UserAnswers == nil {
		t.Fatalf("multi-choice snapshot should carry its selection")
	}

	if _, ok, _ := kv.Get(ctx, "test:"+LegacyQuestionsKey); ok {
		t.Fatalf("legacy key must be removed after migration")
	}

	again := newTestStore(t, kv)
	if len(again.Collections()) != 1 {
		t.Fatalf("migration must run only once")
	}
}

func TestInitIgnoresCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	_ = kv.Set(ctx, "test:"+CollectionsKey, "{not json")

	s := newTestStore(t, kv)
	if len(s.Collections()) != 0 {
		t.Fatalf("corrupt data should load as empty")
	}

	s.RecordMiss(ctx, missed("q", "A", "B"))
	if s.SessionErrorCount() != 1 {
		t.Fatalf("store must keep working after a bad load")
	}
}

func TestStorageFailureDoesNotBlockStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, failingKV{})

	s.RecordMiss(ctx, missed("q", "A", "B"))
	if c := s.SaveSessionAsCollection(ctx); c == nil {
		t.Fatalf("save should succeed in memory when persistence fails")
	}
	if s.TotalErrorCount() != 1 {
		t.Fatalf("total = %d, want 1", s.TotalErrorCount())
	}
}

func TestRenameAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	c := s.CreateCollection(ctx, "", []entities.Question{*missed("q", "A", "B")})
	s.RecordMiss(ctx, missed("t", "A", "B"))

	if s.Rename(ctx, c.ID, "   ") {
		t.Fatalf("blank names must be rejected")
	}
	if !s.Rename(ctx, c.ID, " 新名字 ") {
		t.Fatalf("rename failed")
	}
	if got, _ := s.Collection(c.ID); got.Name != "新名字" {
		t.Fatalf("name = %q", got.Name)
	}
	if s.Rename(ctx, "missing", "x") || s.Delete(ctx, "missing") {
		t.Fatalf("unknown ids must fail")
	}
	if s.Rename(ctx, entities.TemporaryCollectionID, "x") || s.Delete(ctx, entities.TemporaryCollectionID) {
		t.Fatalf("temporary collection cannot be renamed or deleted")
	}

	s.SelectCollection(c.ID)
	if !s.Delete(ctx, c.ID) {
		t.Fatalf("delete failed")
	}
	if _, ok := s.CurrentCollection(); ok {
		t.Fatalf("deleting the selected collection must clear the selection")
	}
	if s.TotalErrorCount() != 0 {
		t.Fatalf("total = %d after delete", s.TotalErrorCount())
	}
}

func TestSelectCollectionUnknownKeepsSelection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	c := s.CreateCollection(ctx, "a", []entities.Question{*missed("q", "A", "B")})
	s.SelectCollection(c.ID)

	if s.SelectCollection("nope") {
		t.Fatalf("selecting an unknown id must fail")
	}
	if cur, ok := s.CurrentCollection(); !ok || cur.ID != c.ID {
		t.Fatalf("selection changed after a failed select")
	}
}

func TestCollectionsNewestFirstWithoutTemporary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	first := s.CreateCollection(ctx, "first", nil)
	second := s.CreateCollection(ctx, "second", nil)
	s.RecordMiss(ctx, missed("q", "A", "B"))

	got := s.Collections()
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("collections = %+v", got)
	}
}

func TestMergeCollections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())

	target := s.CreateCollection(ctx, "target", []entities.Question{*missed("q1", "A", "B")})
	src1 := s.CreateCollection(ctx, "src1", []entities.Question{*missed("q1", "A", "C"), *missed("q2", "B", "A")})
	src2 := s.CreateCollection(ctx, "src2", []entities.Question{*missed("q3", "C", "A")})

	if s.MergeCollections(ctx, target.ID, src1.ID, "missing") {
		t.Fatalf("merge with an unknown source must fail")
	}
	if s.MergeCollections(ctx, target.ID, target.ID) {
		t.Fatalf("merging a collection into itself must fail")
	}

	s.SelectCollection(src2.ID)
	if !s.MergeCollections(ctx, target.ID, src1.ID, src2.ID) {
		t.Fatalf("merge failed")
	}

	got, _ := s.Collection(target.ID)
	if len(got.Questions) != 3 {
		t.Fatalf("merged questions = %d, want 3", len(got.Questions))
	}
	if got.Questions[0].UserAnswer != "B" {
		t.Fatalf("existing entry must win over duplicates")
	}
	if _, ok := s.Collection(src1.ID); ok {
		t.Fatalf("sources must be deleted")
	}
	if _, ok := s.CurrentCollection(); ok {
		t.Fatalf("merging away the selected collection clears the selection")
	}
}

func TestModes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryKV())
	c := s.CreateCollection(ctx, "c", []entities.Question{*missed("q", "A", "B")})

	s.SetErrorBookMode(true)
	s.SetCollectionListMode(true)
	s.SelectCollection(c.ID)
	if !s.IsErrorBookMode() || !s.IsCollectionListMode() {
		t.Fatalf("modes not set")
	}

	s.SetErrorBookMode(false)
	if s.IsErrorBookMode() || s.IsCollectionListMode() {
		t.Fatalf("leaving error-book mode must leave the list too")
	}
	if _, ok := s.CurrentCollection(); ok {
		t.Fatalf("leaving error-book mode must clear the selection")
	}
}
