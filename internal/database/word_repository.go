package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/vocabdash/pkg/models"
	"github.com/jmoiron/sqlx"
)

const wordColumns = `id, user_id, original, translation, language, example, category,
	difficulty, created_at, last_reviewed, review_count, correct_count`

// WordRepository handles database operations for words
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// ListByUser returns all words of a user, newest first
func (r *WordRepository) ListByUser(ctx context.Context, userID string) ([]models.Word, error) {
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM words
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`)

	words := []models.Word{}
	if err := r.db.SelectContext(ctx, &words, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get words: %v", err)
	}
	for i := range words {
		normalizeWordTimes(&words[i])
	}
	return words, nil
}

// GetByID returns a word by ID, or ErrNotFound
func (r *WordRepository) GetByID(ctx context.Context, userID, id string) (*models.Word, error) {
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM words WHERE user_id = ? AND id = ?`)

	var word models.Word
	err := r.db.GetContext(ctx, &word, query, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %v", err)
	}
	normalizeWordTimes(&word)
	return &word, nil
}

// Create inserts a new word. The caller assigns ID and timestamps.
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	query := `
		INSERT INTO words (` + wordColumns + `)
		VALUES (:id, :user_id, :original, :translation, :language, :example, :category,
			:difficulty, :created_at, :last_reviewed, :review_count, :correct_count)
	`
	row := *word
	row.CreatedAt = row.CreatedAt.UTC()
	if row.LastReviewed != nil {
		t := row.LastReviewed.UTC()
		row.LastReviewed = &t
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create word: %v", err)
	}
	return nil
}

// Update overwrites every mutable column of an existing word
func (r *WordRepository) Update(ctx context.Context, word *models.Word) error {
	query := `
		UPDATE words SET
			original = :original,
			translation = :translation,
			language = :language,
			example = :example,
			category = :category,
			difficulty = :difficulty,
			last_reviewed = :last_reviewed,
			review_count = :review_count,
			correct_count = :correct_count
		WHERE id = :id AND user_id = :user_id
	`
	row := *word
	if row.LastReviewed != nil {
		t := row.LastReviewed.UTC()
		row.LastReviewed = &t
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to update word: %v", err)
	}
	return nil
}

// Delete removes a word. Deleting a missing word is not an error.
func (r *WordRepository) Delete(ctx context.Context, userID, id string) error {
	query := r.db.Rebind(`DELETE FROM words WHERE user_id = ? AND id = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("failed to delete word: %v", err)
	}
	return nil
}

func normalizeWordTimes(w *models.Word) {
	w.CreatedAt = w.CreatedAt.UTC()
	if w.LastReviewed != nil {
		t := w.LastReviewed.UTC()
		w.LastReviewed = &t
	}
}
