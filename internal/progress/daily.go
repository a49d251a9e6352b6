package progress

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/vocabdash/pkg/models"
)

// Range is the time window of the activity chart
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

// ParseRange accepts week, month or all; empty means week
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeWeek, nil
	case RangeWeek, RangeMonth, RangeAll:
		return r, nil
	default:
		return "", fmt.Errorf("unknown range %q", s)
	}
}

// Days is the look-back length of the range
func (r Range) Days() int {
	switch r {
	case RangeMonth:
		return 30
	case RangeAll:
		return 365
	default:
		return 7
	}
}

// DailyActivity aggregates the answers of one calendar day
type DailyActivity struct {
	Date    time.Time `json:"date"` // local midnight
	Correct int       `json:"correct"`
	Total   int       `json:"total"`
}

// Daily groups answers from the last r.Days() days by local calendar day,
// oldest first. Days without answers are omitted.
func Daily(history []models.QuizResult, r Range, now time.Time) []DailyActivity {
	loc := now.Location()
	since := now.AddDate(0, 0, -r.Days())

	byDay := make(map[string]*DailyActivity)
	for _, res := range history {
		if res.Timestamp.Before(since) {
			continue
		}
		local := res.Timestamp.In(loc)
		key := dayKey(local)
		day, ok := byDay[key]
		if !ok {
			y, m, d := local.Date()
			day = &DailyActivity{Date: time.Date(y, m, d, 0, 0, 0, 0, loc)}
			byDay[key] = day
		}
		day.Total++
		if res.Correct {
			day.Correct++
		}
	}

	out := make([]DailyActivity, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
