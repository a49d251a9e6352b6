package models

import "time"

// UserProgress is derived from a user's words and answer history. It is
// recomputed from snapshots and never stored.
type UserProgress struct {
	TotalWords     int        `json:"total_words"`
	CorrectAnswers int        `json:"correct_answers"`
	TotalAnswers   int        `json:"total_answers"`
	Accuracy       int        `json:"accuracy"` // 0-100
	Streak         int        `json:"streak"`   // consecutive days with answers
	LastStudyDate  *time.Time `json:"last_study_date,omitempty"`
}
