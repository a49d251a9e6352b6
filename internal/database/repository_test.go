package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/vocabdash/pkg/models"
	"github.com/jmoiron/sqlx"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newWord(id, userID string, createdAt time.Time) *models.Word {
	return &models.Word{
		ID:          id,
		UserID:      userID,
		Original:    "casa-" + id,
		Translation: "house",
		Language:    "es",
		Difficulty:  models.DifficultyMedium,
		CreatedAt:   createdAt,
	}
}

func TestWordRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(openTestDB(t))
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, newWord(id, "u1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}
	if err := repo.Create(ctx, newWord("other", "u2", base)); err != nil {
		t.Fatalf("Create(other): %v", err)
	}

	words, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	for i, want := range []string{"c", "b", "a"} {
		if words[i].ID != want {
			t.Errorf("words[%d].ID = %s, want %s", i, words[i].ID, want)
		}
	}
	if words[0].LastReviewed != nil || words[0].ReviewCount != 0 || words[0].CorrectCount != 0 {
		t.Errorf("new word has review data: %+v", words[0])
	}

	w, err := repo.GetByID(ctx, "u1", "b")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	reviewed := base.Add(time.Hour)
	w.ReviewCount = 2
	w.CorrectCount = 1
	w.LastReviewed = &reviewed
	w.Difficulty = models.DifficultyHard
	if err := repo.Update(ctx, w); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1", "b")
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.ReviewCount != 2 || got.CorrectCount != 1 || got.Difficulty != models.DifficultyHard {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.LastReviewed == nil || !got.LastReviewed.Equal(reviewed) {
		t.Errorf("LastReviewed = %v, want %v", got.LastReviewed, reviewed)
	}

	if _, err := repo.GetByID(ctx, "u2", "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID across users error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, "u1", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "u1", "b"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "u1", "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}

func TestQuizResultRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewQuizResultRepository(openTestDB(t))
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	results := []models.QuizResult{
		{ID: "r1", UserID: "u1", WordID: "w1", Correct: true, Timestamp: base},
		{ID: "r2", UserID: "u1", WordID: "w2", Correct: false, Timestamp: base.Add(time.Minute)},
		{ID: "r3", UserID: "u1", WordID: "w1", Correct: true, Timestamp: base.Add(2 * time.Minute)},
		{ID: "r4", UserID: "u2", WordID: "w9", Correct: true, Timestamp: base.Add(-48 * time.Hour)},
	}
	for i := range results {
		if err := repo.Create(ctx, &results[i]); err != nil {
			t.Fatalf("Create(%s): %v", results[i].ID, err)
		}
	}

	recent, err := repo.RecentByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "r3" || recent[1].ID != "r2" {
		t.Fatalf("unexpected recent results: %+v", recent)
	}
	if recent[1].Correct {
		t.Errorf("r2 should be incorrect")
	}
	if !recent[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("timestamp = %v", recent[0].Timestamp)
	}

	users, err := repo.UsersActiveSince(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("UsersActiveSince: %v", err)
	}
	if len(users) != 1 || users[0] != "u1" {
		t.Errorf("active users = %v, want [u1]", users)
	}
}
