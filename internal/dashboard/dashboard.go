// Package dashboard bundles one user's word store, answer history and
// quiz session, and derives progress from their current snapshots.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/example/vocabdash/internal/history"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/progress"
	"github.com/example/vocabdash/internal/quiz"
	"github.com/example/vocabdash/internal/vocabulary"
	"github.com/example/vocabdash/pkg/models"
	"go.uber.org/zap"
)

// Dashboard is the per-user view model
type Dashboard struct {
	Words   *vocabulary.Store
	History *history.Log
	Quiz    *quiz.Session

	now func() time.Time
	loc *time.Location
	log *zap.Logger
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithLocation sets the zone used to split answers into calendar days
func WithLocation(loc *time.Location) Option {
	return func(d *Dashboard) {
		if loc != nil {
			d.loc = loc
		}
	}
}

// WithLogger sets the dashboard logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) { d.log = logger.OrNop(l) }
}

// New wires a dashboard. The session must read from words and write to log.
func New(words *vocabulary.Store, log *history.Log, session *quiz.Session, opts ...Option) *Dashboard {
	d := &Dashboard{
		Words:   words,
		History: log,
		Quiz:    session,
		now:     time.Now,
		loc:     time.Local,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load fetches words and recent history. Both loads are attempted even
// when one fails; the failures are joined.
func (d *Dashboard) Load(ctx context.Context) error {
	_, wordsErr := d.Words.List(ctx)
	_, historyErr := d.History.FetchRecent(ctx, 0)

	if err := errors.Join(wordsErr, historyErr); err != nil {
		d.log.Warn("dashboard load incomplete", zap.Error(err))
		return err
	}
	return nil
}

// Progress recomputes the summary from the current snapshots
func (d *Dashboard) Progress() models.UserProgress {
	return progress.Compute(d.Words.Words(), d.History.Entries(), d.localNow())
}

// Report is the full statistics view
type Report struct {
	Progress     models.UserProgress
	StreakAtRisk bool
	Languages    []progress.Bucket
	Difficulties []progress.Bucket
	Daily        []progress.DailyActivity
	Range        progress.Range
}

// Report recomputes every statistic for the given range
func (d *Dashboard) Report(r progress.Range) Report {
	words := d.Words.Words()
	entries := d.History.Entries()
	now := d.localNow()

	return Report{
		Progress:     progress.Compute(words, entries, now),
		StreakAtRisk: progress.StreakAtRisk(entries, now),
		Languages:    progress.LanguageDistribution(words),
		Difficulties: progress.DifficultyDistribution(words),
		Daily:        progress.Daily(entries, r, now),
		Range:        r,
	}
}

func (d *Dashboard) localNow() time.Time {
	return d.now().In(d.loc)
}
