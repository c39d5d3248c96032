package service

import (
	"context"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
)

// KeyValueStore is the persistent surface the error book is saved to.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// ErrorRecorder receives graded answers from a quiz session.
type ErrorRecorder interface {
	RecordMiss(ctx context.Context, q *entities.Question)
	UpdateErrorStatus(ctx context.Context, q *entities.Question, isCorrect bool)
	IsErrorBookMode() bool
}
