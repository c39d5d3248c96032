package service

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// WorkspaceRepository keeps live workspaces in memory.
type WorkspaceRepository interface {
	Get(id int64) (*Workspace, bool)
	GetOrStore(id int64, create func() *Workspace) *Workspace
	Delete(id int64)
	EvictIdle(ttl time.Duration) []int64
}

// CompletionNotifier is told when a finished run has misses worth saving.
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, id int64, offer CompletionOffer)
}

// WorkspaceConfig tunes workspace lifetime and the completion prompt.
type WorkspaceConfig struct {
	CompletionDelay time.Duration
	IdleTTL         time.Duration
	EvictSchedule   string
}

// WorkspaceService hands out one workspace per chat and evicts idle ones.
type WorkspaceService struct {
	repo     WorkspaceRepository
	kv       KeyValueStore
	cfg      WorkspaceConfig
	notifier CompletionNotifier
	logger   *zap.Logger
}

// NewWorkspaceService creates a new workspace service.
func NewWorkspaceService(
	repo WorkspaceRepository,
	kv KeyValueStore,
	cfg WorkspaceConfig,
	logger *zap.Logger,
) *WorkspaceService {
	if cfg.EvictSchedule == "" {
		cfg.EvictSchedule = "@every 1m"
	}

	return &WorkspaceService{
		repo:   repo,
		kv:     kv,
		cfg:    cfg,
		logger: logger,
	}
}

// SetNotifier sets the notifier (called after the delivery handler is created).
func (s *WorkspaceService) SetNotifier(notifier CompletionNotifier) {
	s.notifier = notifier
}

// Namespace returns the storage key prefix of workspace id.
func Namespace(id int64) string {
	return "ws:" + strconv.FormatInt(id, 10)
}

// Workspace returns the workspace of id, loading its error book on first use.
func (s *WorkspaceService) Workspace(ctx context.Context, id int64) *Workspace {
	return s.repo.GetOrStore(id, func() *Workspace {
		logger := s.logger.With(zap.Int64("workspace_id", id))

		book := NewErrorBookStore(s.kv, Namespace(id), logger)
		book.Init(ctx)

		logger.Debug("workspace created")
		return NewWorkspace(book, logger)
	})
}

// Drop forgets the in-memory state of id. Persisted collections are kept.
func (s *WorkspaceService) Drop(id int64) {
	s.repo.Delete(id)
}

// Submit grades the current answer of id and schedules the completion check when due.
func (s *WorkspaceService) Submit(ctx context.Context, id int64) (SubmitResult, bool) {
	w := s.Workspace(ctx, id)

	res, ok := w.Submit(ctx)
	if ok && res.CheckComplete {
		s.scheduleCompletion(ctx, id, w)
	}
	return res, ok
}

func (s *WorkspaceService) scheduleCompletion(ctx context.Context, id int64, w *Workspace) {
	if s.notifier == nil {
		return
	}

	time.AfterFunc(s.cfg.CompletionDelay, func() {
		if ctx.Err() != nil {
			return
		}

		// The chat may have moved on or been evicted in the meantime.
		if current, ok := s.repo.Get(id); !ok || current != w {
			return
		}

		offer, ok := w.CompletionOffer()
		if !ok {
			return
		}
		s.notifier.NotifyCompletion(ctx, id, offer)
	})
}

// Start runs the idle eviction job until ctx is cancelled.
func (s *WorkspaceService) Start(ctx context.Context) {
	if s.cfg.IdleTTL <= 0 {
		s.logger.Info("workspace eviction disabled")
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.cfg.EvictSchedule, func() {
		evicted := s.repo.EvictIdle(s.cfg.IdleTTL)
		if len(evicted) > 0 {
			s.logger.Info("idle workspaces evicted", zap.Int("count", len(evicted)))
		}
	})
	if err != nil {
		s.logger.Error("failed to add cron job", zap.Error(err))
		return
	}

	c.Start()
	s.logger.Info("workspace eviction started", zap.Duration("ttl", s.cfg.IdleTTL))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("workspace eviction stopped")
}
