package models

import "time"

// QuizResult is one graded answer. Results are never updated or deleted,
// and WordID may refer to a word that no longer exists.
type QuizResult struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	WordID    string    `json:"word_id" db:"word_id"`
	Correct   bool      `json:"correct" db:"correct"`
	Timestamp time.Time `json:"timestamp" db:"answered_at"`
}
