// Package history keeps the append-only log of graded answers
package history

import (
	"context"
	"time"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/auth"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/metrics"
	"github.com/example/vocabdash/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLimit is the number of recent answers fetched on load
const DefaultLimit = 100

// Repository is the document collaborator for quiz results
type Repository interface {
	Create(ctx context.Context, result *models.QuizResult) error
	RecentByUser(ctx context.Context, userID string, limit int) ([]models.QuizResult, error)
}

// Log holds the current user's most recent answers, newest first
type Log struct {
	repo  Repository
	users auth.Provider
	log   *zap.Logger
	newID func() string

	limit   int
	owner   string
	entries []models.QuizResult
}

// Option configures a Log
type Option func(*Log)

// WithLogger sets the logger used for store failures
func WithLogger(l *zap.Logger) Option {
	return func(h *Log) { h.log = logger.OrNop(l) }
}

// WithIDGenerator overrides the uuid generator
func WithIDGenerator(gen func() string) Option {
	return func(h *Log) { h.newID = gen }
}

// WithLimit caps the snapshot size
func WithLimit(limit int) Option {
	return func(h *Log) {
		if limit > 0 {
			h.limit = limit
		}
	}
}

// NewLog creates a history log backed by repo
func NewLog(repo Repository, users auth.Provider, opts ...Option) *Log {
	h := &Log{
		repo:  repo,
		users: users,
		log:   zap.NewNop(),
		newID: uuid.NewString,
		limit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchRecent loads up to limit answers, newest first. A non-positive
// limit uses the log's configured limit.
func (h *Log) FetchRecent(ctx context.Context, limit int) ([]models.QuizResult, error) {
	user, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = h.limit
	}

	start := time.Now()
	entries, err := h.repo.RecentByUser(ctx, user.ID, limit)
	metrics.ObserveStoreOp("fetch_history", start, err)
	if err != nil {
		h.log.Error("history fetch failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, apperr.Store("fetch quiz history", err)
	}

	h.entries = entries
	return h.Entries(), nil
}

// Append records one graded answer. Existing entries are never touched.
func (h *Log) Append(ctx context.Context, result models.QuizResult) (*models.QuizResult, error) {
	user, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	result.ID = h.newID()
	result.UserID = user.ID
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	start := time.Now()
	err = h.repo.Create(ctx, &result)
	metrics.ObserveStoreOp("append_history", start, err)
	if err != nil {
		h.log.Error("history append failed",
			zap.String("user_id", user.ID),
			zap.String("word_id", result.WordID),
			zap.Error(err),
		)
		return nil, apperr.Store("save quiz result", err)
	}

	h.entries = append([]models.QuizResult{result}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return &result, nil
}

// Entries returns a copy of the loaded history
func (h *Log) Entries() []models.QuizResult {
	out := make([]models.QuizResult, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *Log) currentUser(ctx context.Context) (*auth.User, error) {
	user, err := auth.Require(ctx, h.users)
	if err != nil {
		h.owner, h.entries = "", nil
		return nil, err
	}
	if user.ID != h.owner {
		h.owner, h.entries = user.ID, nil
	}
	return user, nil
}
