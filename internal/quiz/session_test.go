package quiz

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/pkg/models"
)

type fakeWords struct {
	words     []models.Word
	updateErr error
	updates   int
}

func (f *fakeWords) Words() []models.Word { return append([]models.Word(nil), f.words...) }

func (f *fakeWords) Lookup(id string) (models.Word, bool) {
	for _, w := range f.words {
		if w.ID == id {
			return w, true
		}
	}
	return models.Word{}, false
}

func (f *fakeWords) Update(_ context.Context, id string, patch models.WordPatch) (*models.Word, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.words {
		if f.words[i].ID == id {
			f.words[i] = patch.Apply(f.words[i])
			f.updates++
			w := f.words[i]
			return &w, nil
		}
	}
	return nil, apperr.NotFound("word", id)
}

type fakeLog struct {
	entries  []models.QuizResult
	err      error
	failOnce error
}

func (f *fakeLog) Append(_ context.Context, r models.QuizResult) (*models.QuizResult, error) {
	if err := f.failOnce; err != nil {
		f.failOnce = nil
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, r)
	return &r, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func vocabulary() []models.Word {
	return []models.Word{
		{ID: "w1", Original: "casa", Translation: "Casa", Language: "es", Difficulty: models.DifficultyEasy},
		{ID: "w2", Original: "perro", Translation: "dog", Language: "es", Difficulty: models.DifficultyMedium},
		{ID: "w3", Original: "gato", Translation: "cat", Language: "es", Difficulty: models.DifficultyHard},
		{ID: "w4", Original: "Haus", Translation: "house", Language: "de", Difficulty: models.DifficultyEasy},
	}
}

func newTestSession(words *fakeWords, log *fakeLog) *Session {
	return NewSession(words, log,
		WithRand(rand.New(rand.NewSource(42))),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestStartCapsAtPoolSize(t *testing.T) {
	s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{})

	if err := s.Start(Options{Language: "es", Count: 5}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != Active || s.Total() != 3 || s.Index() != 0 {
		t.Fatalf("state=%v total=%d index=%d", s.State(), s.Total(), s.Index())
	}

	seen := map[string]bool{}
	for s.State() == Active {
		w, ok := s.Current()
		if !ok {
			t.Fatal("active session without current question")
		}
		if w.Language != "es" {
			t.Errorf("question %s has language %s", w.ID, w.Language)
		}
		if seen[w.ID] {
			t.Errorf("word %s asked twice", w.ID)
		}
		seen[w.ID] = true
		if err := s.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if len(seen) != 3 {
		t.Errorf("asked %d distinct words, want 3", len(seen))
	}
}

func TestStartFilters(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"no filters", Options{Count: 10}, 4},
		{"language", Options{Language: "de", Count: 10}, 1},
		{"difficulty", Options{Difficulty: models.DifficultyEasy, Count: 10}, 2},
		{"both", Options{Language: "es", Difficulty: models.DifficultyEasy, Count: 10}, 1},
		{"count smaller than pool", Options{Count: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{})
			if err := s.Start(tt.opts); err != nil {
				t.Fatalf("Start: %v", err)
			}
			if s.Total() != tt.want {
				t.Errorf("Total = %d, want %d", s.Total(), tt.want)
			}
		})
	}
}

func TestStartErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"zero count", Options{Count: 0}, apperr.ErrValidation},
		{"negative count", Options{Count: -3}, apperr.ErrValidation},
		{"unknown difficulty", Options{Difficulty: "brutal", Count: 1}, apperr.ErrValidation},
		{"empty pool", Options{Language: "fr", Count: 5}, apperr.ErrNoCandidates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{})
			if err := s.Start(tt.opts); !errors.Is(err, tt.want) {
				t.Fatalf("Start error = %v, want %v", err, tt.want)
			}
			if s.State() != Idle {
				t.Errorf("State = %v, want idle", s.State())
			}
		})
	}
}

func TestStartIsDeterministicWithSeed(t *testing.T) {
	order := func() []string {
		s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{})
		if err := s.Start(Options{Count: 4}); err != nil {
			t.Fatalf("Start: %v", err)
		}
		var ids []string
		for s.State() == Active {
			w, _ := s.Current()
			ids = append(ids, w.ID)
			s.Next()
		}
		return ids
	}

	a, b := order(), order()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced %v and %v", a, b)
		}
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"casa", true},
		{" Casa ", true},
		{"CASA", true},
		{"\tcasa\n", true},
		{"casas", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Grade(tt.answer, "Casa"); got != tt.want {
			t.Errorf("Grade(%q, Casa) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}

func TestSubmitAnswerRecordsReview(t *testing.T) {
	ctx := context.Background()
	words := &fakeWords{words: vocabulary()}
	log := &fakeLog{}
	s := newTestSession(words, log)

	if err := s.Start(Options{Language: "de", Count: 1}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	correct, err := s.SubmitAnswer(ctx, "w4", "  HOUSE ")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !correct {
		t.Fatal("expected a correct answer")
	}

	w, _ := words.Lookup("w4")
	if w.ReviewCount != 1 || w.CorrectCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", w.CorrectCount, w.ReviewCount)
	}
	if w.LastReviewed == nil || !w.LastReviewed.Equal(fixedNow) {
		t.Errorf("LastReviewed = %v, want %v", w.LastReviewed, fixedNow)
	}
	if len(log.entries) != 1 || log.entries[0].WordID != "w4" || !log.entries[0].Correct {
		t.Errorf("history = %+v", log.entries)
	}
	if len(s.Results()) != 1 || !s.Answered() {
		t.Errorf("session results = %+v", s.Results())
	}
}

func TestSubmitIncorrectAnswer(t *testing.T) {
	ctx := context.Background()
	words := &fakeWords{words: vocabulary()}
	s := newTestSession(words, &fakeLog{})
	s.Start(Options{Language: "de", Count: 1})

	correct, err := s.SubmitAnswer(ctx, "w4", "home")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if correct {
		t.Fatal("expected an incorrect answer")
	}
	w, _ := words.Lookup("w4")
	if w.ReviewCount != 1 || w.CorrectCount != 0 {
		t.Errorf("counts = %d/%d, want 0/1", w.CorrectCount, w.ReviewCount)
	}
}

func TestSubmitAnswerInvalidState(t *testing.T) {
	ctx := context.Background()
	words := &fakeWords{words: vocabulary()}
	log := &fakeLog{}
	s := newTestSession(words, log)

	if _, err := s.SubmitAnswer(ctx, "w1", "Casa"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("idle SubmitAnswer error = %v, want ErrInvalidState", err)
	}

	s.Start(Options{Language: "de", Count: 1})
	if _, err := s.SubmitAnswer(ctx, "w1", "Casa"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("wrong word SubmitAnswer error = %v, want ErrInvalidState", err)
	}
	if _, err := s.SubmitAnswer(ctx, "w4", "house"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := s.SubmitAnswer(ctx, "w4", "house"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("repeated SubmitAnswer error = %v, want ErrInvalidState", err)
	}

	if words.updates != 1 || len(log.entries) != 1 {
		t.Errorf("rejected submissions mutated state: updates=%d history=%d", words.updates, len(log.entries))
	}

	s.Next()
	if _, err := s.SubmitAnswer(ctx, "w4", "house"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("completed SubmitAnswer error = %v, want ErrInvalidState", err)
	}
}

func TestSubmitAnswerForDeletedWord(t *testing.T) {
	words := &fakeWords{words: vocabulary()}
	s := newTestSession(words, &fakeLog{})
	s.Start(Options{Language: "de", Count: 1})

	words.words = words.words[:3]
	if _, err := s.SubmitAnswer(context.Background(), "w4", "house"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("SubmitAnswer error = %v, want ErrNotFound", err)
	}
	if s.Answered() || len(s.Results()) != 0 {
		t.Error("failed submission was recorded")
	}
}

func TestSubmitAnswerStoreFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := apperr.Store("update word", errors.New("offline"))

	t.Run("word update", func(t *testing.T) {
		log := &fakeLog{}
		s := newTestSession(&fakeWords{words: vocabulary(), updateErr: storeErr}, log)
		s.Start(Options{Language: "de", Count: 1})

		if _, err := s.SubmitAnswer(ctx, "w4", "house"); !errors.Is(err, apperr.ErrStore) {
			t.Fatalf("SubmitAnswer error = %v, want ErrStore", err)
		}
		if len(log.entries) != 0 || s.Answered() || len(s.Results()) != 0 {
			t.Error("failed submission changed state")
		}
	})

	t.Run("history append", func(t *testing.T) {
		s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{err: storeErr})
		s.Start(Options{Language: "de", Count: 1})

		if _, err := s.SubmitAnswer(ctx, "w4", "house"); !errors.Is(err, apperr.ErrStore) {
			t.Fatalf("SubmitAnswer error = %v, want ErrStore", err)
		}
		if s.Answered() || len(s.Results()) != 0 {
			t.Error("failed submission changed session state")
		}
	})

	t.Run("retry after failed append", func(t *testing.T) {
		words := &fakeWords{words: vocabulary()}
		log := &fakeLog{failOnce: storeErr}
		s := newTestSession(words, log)
		s.Start(Options{Language: "de", Count: 1})

		if _, err := s.SubmitAnswer(ctx, "w4", "house"); !errors.Is(err, apperr.ErrStore) {
			t.Fatalf("first SubmitAnswer error = %v, want ErrStore", err)
		}
		correct, err := s.SubmitAnswer(ctx, "w4", "wrong")
		if err != nil {
			t.Fatalf("retry SubmitAnswer: %v", err)
		}
		if !correct {
			t.Error("retry changed the original grade")
		}

		w, _ := words.Lookup("w4")
		if w.ReviewCount != 1 || w.CorrectCount != 1 || words.updates != 1 {
			t.Errorf("review counted more than once: review=%d correct=%d updates=%d",
				w.ReviewCount, w.CorrectCount, words.updates)
		}
		if len(log.entries) != 1 || len(s.Results()) != 1 || !s.Answered() {
			t.Errorf("entries=%d results=%d answered=%v", len(log.entries), len(s.Results()), s.Answered())
		}
	})
}

func TestNextCompletesSession(t *testing.T) {
	s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{})

	if err := s.Next(); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("idle Next error = %v, want ErrInvalidState", err)
	}

	s.Start(Options{Language: "es", Count: 2})
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if s.State() != Active || s.Index() != 1 {
		t.Fatalf("state=%v index=%d after first Next", s.State(), s.Index())
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if s.State() != Completed {
		t.Fatalf("State = %v, want completed", s.State())
	}
	if _, ok := s.Current(); ok {
		t.Error("completed session still has a current question")
	}
	if s.Index() != s.Total() {
		t.Errorf("Index = %d, want %d", s.Index(), s.Total())
	}
	if err := s.Next(); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("completed Next error = %v, want ErrInvalidState", err)
	}
}

func TestScore(t *testing.T) {
	if got := Score(nil); got != 0 {
		t.Errorf("Score(nil) = %d, want 0", got)
	}
	results := []models.QuizResult{{Correct: true}, {Correct: false}, {Correct: true}}
	if got := Score(results); got != 67 {
		t.Errorf("Score = %d, want 67", got)
	}
}

func TestSessionScoreAndInvariant(t *testing.T) {
	ctx := context.Background()
	words := &fakeWords{words: vocabulary()}
	s := newTestSession(words, &fakeLog{})
	if s.Score() != 0 {
		t.Fatalf("idle Score = %d, want 0", s.Score())
	}

	s.Start(Options{Language: "es", Count: 3})
	answers := []bool{true, false, true}
	for _, right := range answers {
		w, _ := s.Current()
		answer := "wrong"
		if right {
			answer = w.Translation
		}
		if _, err := s.SubmitAnswer(ctx, w.ID, answer); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		s.Next()
	}

	if s.Score() != 67 {
		t.Errorf("Score = %d, want 67", s.Score())
	}
	for _, w := range words.words {
		if w.CorrectCount > w.ReviewCount {
			t.Errorf("word %s has %d correct of %d reviews", w.ID, w.CorrectCount, w.ReviewCount)
		}
	}
}

func TestAbandon(t *testing.T) {
	s := newTestSession(&fakeWords{words: vocabulary()}, &fakeLog{})
	s.Start(Options{Count: 3})
	s.Abandon()

	if s.State() != Idle || s.Total() != 0 || len(s.Results()) != 0 {
		t.Fatalf("abandoned session state=%v total=%d", s.State(), s.Total())
	}
	if err := s.Start(Options{Count: 1}); err != nil {
		t.Fatalf("Start after Abandon: %v", err)
	}
}
