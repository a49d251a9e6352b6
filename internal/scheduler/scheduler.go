package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/vocabdash/internal/history"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/metrics"
	"github.com/example/vocabdash/internal/progress"
	"github.com/example/vocabdash/pkg/models"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultReminderHour is the local hour of the daily streak check
const DefaultReminderHour = 19

// Notifier delivers streak reminders to users
type Notifier interface {
	SendStreakReminder(ctx context.Context, userID string, streak int) error
}

// HistorySource reads answer history across users
type HistorySource interface {
	UsersActiveSince(ctx context.Context, since time.Time) ([]string, error)
	RecentByUser(ctx context.Context, userID string, limit int) ([]models.QuizResult, error)
}

// Scheduler runs the daily streak reminder
type Scheduler struct {
	scheduler *gocron.Scheduler
	history   HistorySource
	notifier  Notifier

	loc   *time.Location
	hour  int
	limit int
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLocation sets the zone of the reminder hour and of calendar days
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithHour sets the local hour (0-23) of the daily check
func WithHour(hour int) Option {
	return func(s *Scheduler) { s.hour = hour }
}

// WithHistoryLimit caps the answers loaded per user
func WithHistoryLimit(limit int) Option {
	return func(s *Scheduler) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the scheduler logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.log = logger.OrNop(l) }
}

// New creates a new scheduler instance
func New(source HistorySource, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		history:  source,
		notifier: notifier,
		loc:      time.Local,
		hour:     DefaultReminderHour,
		limit:    history.DefaultLimit,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scheduler = gocron.NewScheduler(s.loc)
	return s
}

// Start schedules the daily check and runs the scheduler in the background
func (s *Scheduler) Start() error {
	if s.hour < 0 || s.hour > 23 {
		return fmt.Errorf("invalid reminder hour %d", s.hour)
	}

	at := fmt.Sprintf("%02d:00", s.hour)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.runCheck); err != nil {
		return fmt.Errorf("failed to schedule streak reminder: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Info("streak reminder scheduled", zap.String("at", at), zap.String("location", s.loc.String()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runCheck() {
	sent, err := s.CheckStreaks(context.Background())
	if err != nil {
		s.log.Error("streak check finished with errors", zap.Int("sent", sent), zap.Error(err))
		return
	}
	s.log.Info("streak check finished", zap.Int("sent", sent))
}

// CheckStreaks notifies every user who studied yesterday but not yet today.
// It returns the number of reminders sent. A failure for one user does not
// stop the others; their errors are joined.
func (s *Scheduler) CheckStreaks(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)
	y, m, d := now.AddDate(0, 0, -1).Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	users, err := s.history.UsersActiveSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list active users: %w", err)
	}

	sent := 0
	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		entries, err := s.history.RecentByUser(ctx, userID, s.limit)
		if err != nil {
			s.log.Warn("failed to load history", zap.String("user_id", userID), zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if !progress.StreakAtRisk(entries, now) {
			continue
		}

		streak := progress.Streak(entries, now)
		if err := s.notifier.SendStreakReminder(ctx, userID, streak); err != nil {
			s.log.Warn("failed to send streak reminder", zap.String("user_id", userID), zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}

		sent++
		metrics.RemindersSentTotal.Inc()
		s.log.Debug("streak reminder sent", zap.String("user_id", userID), zap.Int("streak", streak))
	}

	return sent, errors.Join(errs...)
}
