// Package progress derives summary statistics from a user's words and
// answer history. Every function is pure; callers pass the current
// snapshots and "now", whose location is the user's time zone.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/example/vocabdash/pkg/models"
)

// Compute builds the user's progress summary
func Compute(words []models.Word, history []models.QuizResult, now time.Time) models.UserProgress {
	correct := 0
	for _, r := range history {
		if r.Correct {
			correct++
		}
	}

	return models.UserProgress{
		TotalWords:     len(words),
		CorrectAnswers: correct,
		TotalAnswers:   len(history),
		Accuracy:       Accuracy(correct, len(history)),
		Streak:         Streak(history, now),
		LastStudyDate:  LastStudyDate(history),
	}
}

// Accuracy returns round(correct/total*100), or 0 when total is 0
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Streak counts consecutive calendar days with at least one answer,
// walking back from today, or from yesterday when today has no answers yet.
func Streak(history []models.QuizResult, now time.Time) int {
	days := activeDays(history, now.Location())
	today := midday(now)
	yesterday := today.AddDate(0, 0, -1)

	var cursor time.Time
	switch {
	case days[dayKey(today)]:
		cursor = today
	case days[dayKey(yesterday)]:
		cursor = yesterday
	default:
		return 0
	}

	streak := 0
	for days[dayKey(cursor)] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// StreakAtRisk reports whether the user studied yesterday but not yet today
func StreakAtRisk(history []models.QuizResult, now time.Time) bool {
	days := activeDays(history, now.Location())
	today := midday(now)
	return !days[dayKey(today)] && days[dayKey(today.AddDate(0, 0, -1))]
}

// LastStudyDate returns the time of the most recent answer
func LastStudyDate(history []models.QuizResult) *time.Time {
	var last *time.Time
	for i := range history {
		if last == nil || history[i].Timestamp.After(*last) {
			t := history[i].Timestamp
			last = &t
		}
	}
	return last
}

// Bucket is one slice of a distribution
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LanguageDistribution counts words per language, largest first
func LanguageDistribution(words []models.Word) []Bucket {
	counts := make(map[string]int)
	for _, w := range words {
		counts[w.Language]++
	}

	out := make([]Bucket, 0, len(counts))
	for name, n := range counts {
		out = append(out, Bucket{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DifficultyDistribution counts words per difficulty in easy, medium, hard order
func DifficultyDistribution(words []models.Word) []Bucket {
	counts := make(map[models.Difficulty]int)
	for _, w := range words {
		counts[w.Difficulty]++
	}

	out := make([]Bucket, 0, len(models.Difficulties))
	for _, d := range models.Difficulties {
		out = append(out, Bucket{Name: string(d), Count: counts[d]})
	}
	return out
}

func activeDays(history []models.QuizResult, loc *time.Location) map[string]bool {
	days := make(map[string]bool, len(history))
	for _, r := range history {
		days[dayKey(r.Timestamp.In(loc))] = true
	}
	return days
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// midday anchors t to noon so day arithmetic never lands on a DST gap
func midday(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, t.Location())
}
