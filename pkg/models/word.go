package models

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is a static, user-assigned label for a word
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the supported labels in display order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the supported labels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty converts free text into a Difficulty. Empty input yields
// the default (medium).
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DifficultyMedium, nil
	}
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Word represents a vocabulary entry owned by a single user
type Word struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"-" db:"user_id"`
	Original     string     `json:"original" db:"original"`
	Translation  string     `json:"translation" db:"translation"`
	Language     string     `json:"language" db:"language"`
	Example      string     `json:"example,omitempty" db:"example"`
	Category     string     `json:"category,omitempty" db:"category"`
	Difficulty   Difficulty `json:"difficulty" db:"difficulty"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty" db:"last_reviewed"`
	ReviewCount  int        `json:"review_count" db:"review_count"`
	CorrectCount int        `json:"correct_count" db:"correct_count"`
}

// WordFields holds the caller-supplied attributes of a new word
type WordFields struct {
	Original    string
	Translation string
	Language    string
	Example     string
	Category    string
	Difficulty  Difficulty
}

// WordPatch is a partial update; nil fields are left untouched
type WordPatch struct {
	Original     *string
	Translation  *string
	Language     *string
	Example      *string
	Category     *string
	Difficulty   *Difficulty
	LastReviewed *time.Time
	ReviewCount  *int
	CorrectCount *int
}

// IsEmpty reports whether the patch changes nothing
func (p WordPatch) IsEmpty() bool {
	return p.Original == nil && p.Translation == nil && p.Language == nil &&
		p.Example == nil && p.Category == nil && p.Difficulty == nil &&
		p.LastReviewed == nil && p.ReviewCount == nil && p.CorrectCount == nil
}

// Apply returns a copy of w with the patch merged in
func (p WordPatch) Apply(w Word) Word {
	if p.Original != nil {
		w.Original = *p.Original
	}
	if p.Translation != nil {
		w.Translation = *p.Translation
	}
	if p.Language != nil {
		w.Language = *p.Language
	}
	if p.Example != nil {
		w.Example = *p.Example
	}
	if p.Category != nil {
		w.Category = *p.Category
	}
	if p.Difficulty != nil {
		w.Difficulty = *p.Difficulty
	}
	if p.LastReviewed != nil {
		t := *p.LastReviewed
		w.LastReviewed = &t
	}
	if p.ReviewCount != nil {
		w.ReviewCount = *p.ReviewCount
	}
	if p.CorrectCount != nil {
		w.CorrectCount = *p.CorrectCount
	}
	return w
}
