package service

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
)

const (
	// LegacyQuestionsKey held a single flat array of missed questions.
	LegacyQuestionsKey = "quiz_error_questions"
	// CollectionsKey holds the list of error collections.
	CollectionsKey = "quiz_error_collections"

	legacyCollectionName = "旧版错题集"
)

// ErrorBookStore keeps named collections of missed questions plus the temporary
// collection of the running session. Every mutation is persisted immediately;
// persistence failures are logged and never returned to callers.
type ErrorBookStore struct {
	mu     sync.Mutex
	kv     KeyValueStore
	prefix string
	logger *zap.Logger

	now   func() time.Time
	newID func() string

	collections        []*entities.ErrorCollection
	currentID          string
	errorBookMode      bool
	collectionListMode bool
}

// NewErrorBookStore creates a store whose keys are prefixed with namespace.
func NewErrorBookStore(kv KeyValueStore, namespace string, logger *zap.Logger) *ErrorBookStore {
	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}

	return &ErrorBookStore{
		kv:     kv,
		prefix: prefix,
		logger: logger.With(zap.String("namespace", namespace)),
		now:    time.Now,
		newID: func() string {
			return "error_" + uuid.NewString()
		},
	}
}

// Init loads persisted collections, resets modes and migrates legacy data.
func (s *ErrorBookStore) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = s.load(ctx)
	s.errorBookMode = false
	s.collectionListMode = false
	s.currentID = ""

	s.migrateLegacy(ctx)
}

func (s *ErrorBookStore) load(ctx context.Context) []*entities.ErrorCollection {
	raw, ok, err := s.kv.Get(ctx, s.prefix+CollectionsKey)
	if err != nil {
		s.logger.Error("failed to load error collections", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var collections []*entities.ErrorCollection
	if err := json.Unmarshal([]byte(raw), &collections); err != nil {
		s.logger.Error("failed to decode error collections", zap.Error(err))
		return nil
	}

	return slices.DeleteFunc(collections, func(c *entities.ErrorCollection) bool {
		return c == nil
	})
}

func (s *ErrorBookStore) migrateLegacy(ctx context.Context) {
	key := s.prefix + LegacyQuestionsKey

	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("failed to read legacy error questions", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var questions []entities.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		s.logger.Error("failed to migrate legacy error questions", zap.Error(err))
		return
	}

	if len(questions) > 0 {
		now := s.now()
		name := legacyCollectionName + " " + entities.FormatDate(now)
		s.collections = append(s.collections, entities.NewErrorCollection(s.newID(), name, now, questions))
		s.persist(ctx)

		s.logger.Info("migrated legacy error questions", zap.Int("count", len(questions)))
	}

	if err := s.kv.Remove(ctx, key); err != nil {
		s.logger.Error("failed to remove legacy error questions", zap.Error(err))
	}
}

func (s *ErrorBookStore) persist(ctx context.Context) {
	data, err := json.Marshal(s.collections)
	if err != nil {
		s.logger.Error("failed to encode error collections", zap.Error(err))
		return
	}

	if err := s.kv.Set(ctx, s.prefix+CollectionsKey, string(data)); err != nil {
		s.logger.Error("failed to save error collections", zap.Error(err))
	}
}

func (s *ErrorBookStore) find(id string) (int, *entities.ErrorCollection) {
	for i, c := range s.collections {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

func (s *ErrorBookStore) temporary() *entities.ErrorCollection {
	_, c := s.find(entities.TemporaryCollectionID)
	return c
}

// RecordMiss adds a snapshot of q to the temporary collection unless a question
// with the same title and answer is already there.
func (s *ErrorBookStore) RecordMiss(ctx context.Context, q *entities.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	temp := s.temporary()
	if temp == nil {
		temp = entities.NewTemporaryCollection(s.now())
		s.collections = append(s.collections, temp)
	}

	if temp.IndexOf(q) != -1 {
		return
	}

	temp.Questions = append(temp.Questions, q.Snapshot())
	s.persist(ctx)
}

// UpdateErrorStatus graduates q from the selected collection when answered correctly,
// otherwise records the latest wrong answer.
func (s *ErrorBookStore) UpdateErrorStatus(ctx context.Context, q *entities.Question, isCorrect bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID == "" {
		return
	}
	_, c := s.find(s.currentID)
	if c == nil {
		return
	}

	i := c.IndexOf(q)
	if i == -1 {
		return
	}

	if isCorrect {
		c.Questions = slices.Delete(c.Questions, i, i+1)
	} else {
		c.Questions[i].UserAnswer = q.UserAnswer
		if c.Questions[i].IsMultipleChoice {
			c.Questions[i].UserAnswers = slices.Clone(q.UserAnswers)
		}
	}

	s.persist(ctx)
}

// SaveSessionAsCollection turns the temporary collection into a permanent one and
// empties it. It returns nil when there is nothing to save.
func (s *ErrorBookStore) SaveSessionAsCollection(ctx context.Context) *entities.ErrorCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	temp := s.temporary()
	if temp == nil || len(temp.Questions) == 0 {
		return nil
	}

	c := entities.NewErrorCollection(s.newID(), "", s.now(), temp.Questions)
	s.collections = append(s.collections, c)
	temp.Questions = []entities.Question{}

	s.persist(ctx)

	saved := c.Clone()
	return &saved
}

// CreateCollection stores questions as a new permanent collection.
// An empty name defaults to the creation date.
func (s *ErrorBookStore) CreateCollection(ctx context.Context, name string, questions []entities.Question) *entities.ErrorCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := entities.NewErrorCollection(s.newID(), strings.TrimSpace(name), s.now(), questions)
	s.collections = append(s.collections, c)
	s.persist(ctx)

	created := c.Clone()
	return &created
}

// MergeCollections moves the questions of sources into target, skipping questions the
// target already holds, and deletes the sources.
func (s *ErrorBookStore) MergeCollections(ctx context.Context, targetID string, sourceIDs ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, target := s.find(targetID)
	if target == nil || target.IsTemporary {
		return false
	}

	sources := make([]*entities.ErrorCollection, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		_, src := s.find(id)
		if src == nil || src.IsTemporary || src == target {
			return false
		}
		if !slices.Contains(sources, src) {
			sources = append(sources, src)
		}
	}

	for _, src := range sources {
		for i := range src.Questions {
			if target.IndexOf(&src.Questions[i]) == -1 {
				target.Questions = append(target.Questions, src.Questions[i].Clone())
			}
		}
	}

	s.collections = slices.DeleteFunc(s.collections, func(c *entities.ErrorCollection) bool {
		return slices.Contains(sources, c)
	})
	if slices.Contains(sourceIDs, s.currentID) {
		s.currentID = ""
	}

	s.persist(ctx)
	return true
}

// Collections returns the permanent collections, newest first.
func (s *ErrorBookStore) Collections() []entities.ErrorCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.ErrorCollection, 0, len(s.collections))
	for _, c := range s.collections {
		if !c.IsTemporary {
			out = append(out, c.Clone())
		}
	}

	slices.SortStableFunc(out, func(a, b entities.ErrorCollection) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}

// Collection returns the collection with the given id.
func (s *ErrorBookStore) Collection(id string) (entities.ErrorCollection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, c := s.find(id)
	if c == nil {
		return entities.ErrorCollection{}, false
	}
	return c.Clone(), true
}

// TemporaryCollection returns the collection of the running session, if it exists.
func (s *ErrorBookStore) TemporaryCollection() (entities.ErrorCollection, bool) {
	return s.Collection(entities.TemporaryCollectionID)
}

// SelectCollection makes id the current collection. The selection is unchanged
// when no such collection exists.
func (s *ErrorBookStore) SelectCollection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, c := s.find(id); c == nil {
		return false
	}
	s.currentID = id
	return true
}

// ClearSelection deselects the current collection.
func (s *ErrorBookStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = ""
}

// CurrentCollection returns the selected collection.
func (s *ErrorBookStore) CurrentCollection() (entities.ErrorCollection, bool) {
	s.mu.Lock()
	id := s.currentID
	s.mu.Unlock()

	if id == "" {
		return entities.ErrorCollection{}, false
	}
	return s.Collection(id)
}

// CurrentCollectionQuestions returns copies of the selected collection's questions.
func (s *ErrorBookStore) CurrentCollectionQuestions() []entities.Question {
	c, ok := s.CurrentCollection()
	if !ok {
		return []entities.Question{}
	}
	return c.Questions
}

// Rename sets a new name on a permanent collection.
func (s *ErrorBookStore) Rename(ctx context.Context, id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, c := s.find(id)
	if c == nil || c.IsTemporary {
		return false
	}

	c.Name = name
	s.persist(ctx)
	return true
}

// Delete removes a permanent collection. Deleting the selected collection clears the selection.
func (s *ErrorBookStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, c := s.find(id)
	if c == nil || c.IsTemporary {
		return false
	}

	s.collections = slices.Delete(s.collections, i, i+1)
	if s.currentID == id {
		s.currentID = ""
	}

	s.persist(ctx)
	return true
}

// TotalErrorCount counts questions across permanent collections.
func (s *ErrorBookStore) TotalErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, c := range s.collections {
		if !c.IsTemporary {
			total += len(c.Questions)
		}
	}
	return total
}

// SessionErrorCount counts questions in the temporary collection.
func (s *ErrorBookStore) SessionErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if temp := s.temporary(); temp != nil {
		return len(temp.Questions)
	}
	return 0
}

// SetErrorBookMode switches error-book mode. Leaving it also leaves the collection
// list and clears the selection.
func (s *ErrorBookStore) SetErrorBookMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorBookMode = on
	if !on {
		s.collectionListMode = false
		s.currentID = ""
	}
}

// IsErrorBookMode reports whether answers are being graded against an error collection.
func (s *ErrorBookStore) IsErrorBookMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorBookMode
}

// SetCollectionListMode toggles whether the collection list is being browsed.
func (s *ErrorBookStore) SetCollectionListMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectionListMode = on
}

// IsCollectionListMode reports whether the collection list is being browsed.
func (s *ErrorBookStore) IsCollectionListMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionListMode
}
