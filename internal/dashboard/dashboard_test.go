package dashboard

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/auth"
	"github.com/example/vocabdash/internal/database"
	"github.com/example/vocabdash/internal/history"
	"github.com/example/vocabdash/internal/progress"
	"github.com/example/vocabdash/internal/quiz"
	"github.com/example/vocabdash/internal/vocabulary"
	"github.com/example/vocabdash/pkg/models"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type memWords struct {
	words   []models.Word
	listErr error
}

func (m *memWords) ListByUser(context.Context, string) ([]models.Word, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Word, len(m.words))
	copy(out, m.words)
	return out, nil
}

func (m *memWords) GetByID(_ context.Context, _, id string) (*models.Word, error) {
	for _, w := range m.words {
		if w.ID == id {
			w := w
			return &w, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memWords) Create(_ context.Context, w *models.Word) error {
	m.words = append([]models.Word{*w}, m.words...)
	return nil
}

func (m *memWords) Update(_ context.Context, w *models.Word) error {
	for i := range m.words {
		if m.words[i].ID == w.ID {
			m.words[i] = *w
		}
	}
	return nil
}

func (m *memWords) Delete(_ context.Context, _, id string) error {
	for i := range m.words {
		if m.words[i].ID == id {
			m.words = append(m.words[:i], m.words[i+1:]...)
			return nil
		}
	}
	return nil
}

type memResults struct {
	results  []models.QuizResult
	fetchErr error
}

func (m *memResults) Create(_ context.Context, r *models.QuizResult) error {
	m.results = append([]models.QuizResult{*r}, m.results...)
	return nil
}

func (m *memResults) RecentByUser(context.Context, string, int) ([]models.QuizResult, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]models.QuizResult(nil), m.results...), nil
}

func newDashboard(words *memWords, results *memResults) *Dashboard {
	users := auth.Static{User: &auth.User{ID: "u1"}}
	store := vocabulary.NewStore(words, users, vocabulary.WithClock(clock))
	log := history.NewLog(results, users)
	session := quiz.NewSession(store, log, quiz.WithRand(rand.New(rand.NewSource(1))), quiz.WithClock(clock))
	return New(store, log, session, WithClock(clock), WithLocation(time.UTC))
}

func TestLoadJoinsErrors(t *testing.T) {
	wordsErr := errors.New("words down")
	resultsErr := errors.New("results down")
	d := newDashboard(&memWords{listErr: wordsErr}, &memResults{fetchErr: resultsErr})

	err := d.Load(context.Background())
	if !errors.Is(err, wordsErr) || !errors.Is(err, resultsErr) {
		t.Fatalf("Load error %v does not wrap both failures", err)
	}
	if !errors.Is(err, apperr.ErrStore) {
		t.Errorf("Load error %v is not a store error", err)
	}
}

func TestLoadKeepsHistoryWhenWordsFail(t *testing.T) {
	results := &memResults{results: []models.QuizResult{{ID: "r1", WordID: "w1", Correct: true, Timestamp: fixedNow}}}
	d := newDashboard(&memWords{listErr: errors.New("down")}, results)

	if err := d.Load(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if got := len(d.History.Entries()); got != 1 {
		t.Errorf("history has %d entries, want 1", got)
	}
}

func TestProgressFollowsQuizAnswers(t *testing.T) {
	words := &memWords{words: []models.Word{
		{ID: "w1", UserID: "u1", Original: "casa", Translation: "house", Language: "es", Difficulty: models.DifficultyEasy, CreatedAt: fixedNow},
		{ID: "w2", UserID: "u1", Original: "perro", Translation: "dog", Language: "es", Difficulty: models.DifficultyMedium, CreatedAt: fixedNow},
	}}
	d := newDashboard(words, &memResults{})
	ctx := context.Background()

	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p := d.Progress(); p.TotalWords != 2 || p.TotalAnswers != 0 || p.Streak != 0 {
		t.Fatalf("unexpected initial progress %+v", p)
	}

	if err := d.Quiz.Start(quiz.Options{Count: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for d.Quiz.State() == quiz.Active {
		w, _ := d.Quiz.Current()
		answer := w.Translation
		if w.ID == "w2" {
			answer = "cat"
		}
		if _, err := d.Quiz.SubmitAnswer(ctx, w.ID, answer); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		if err := d.Quiz.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	p := d.Progress()
	if p.TotalAnswers != 2 || p.CorrectAnswers != 1 || p.Accuracy != 50 || p.Streak != 1 {
		t.Errorf("unexpected progress after quiz %+v", p)
	}

	rep := d.Report(progress.RangeWeek)
	if rep.StreakAtRisk {
		t.Error("streak should not be at risk right after studying")
	}
	if len(rep.Daily) != 1 || rep.Daily[0].Total != 2 {
		t.Errorf("unexpected daily activity %+v", rep.Daily)
	}
	if len(rep.Languages) != 1 || rep.Languages[0] != (progress.Bucket{Name: "es", Count: 2}) {
		t.Errorf("unexpected languages %+v", rep.Languages)
	}
}
