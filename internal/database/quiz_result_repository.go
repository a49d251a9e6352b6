package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/vocabdash/pkg/models"
	"github.com/jmoiron/sqlx"
)

// QuizResultRepository handles database operations for graded answers.
// Rows are only ever inserted.
type QuizResultRepository struct {
	db *sqlx.DB
}

// NewQuizResultRepository creates a new repository instance
func NewQuizResultRepository(db *sqlx.DB) *QuizResultRepository {
	return &QuizResultRepository{db: db}
}

// Create inserts a new quiz result
func (r *QuizResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	query := `
		INSERT INTO quiz_results (id, user_id, word_id, correct, answered_at)
		VALUES (:id, :user_id, :word_id, :correct, :answered_at)
	`
	row := *result
	row.Timestamp = row.Timestamp.UTC()
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create quiz result: %v", err)
	}
	return nil
}

// RecentByUser returns up to limit results of a user, newest first
func (r *QuizResultRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]models.QuizResult, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, word_id, correct, answered_at FROM quiz_results
		WHERE user_id = ?
		ORDER BY answered_at DESC, id DESC
		LIMIT ?
	`)

	results := []models.QuizResult{}
	if err := r.db.SelectContext(ctx, &results, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %v", err)
	}
	for i := range results {
		results[i].Timestamp = results[i].Timestamp.UTC()
	}
	return results, nil
}

// UsersActiveSince returns the users that answered at least once since the given time
func (r *QuizResultRepository) UsersActiveSince(ctx context.Context, since time.Time) ([]string, error) {
	query := r.db.Rebind(`
		SELECT DISTINCT user_id FROM quiz_results
		WHERE answered_at >= ?
		ORDER BY user_id
	`)

	users := []string{}
	if err := r.db.SelectContext(ctx, &users, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to get active users: %v", err)
	}
	return users, nil
}
