package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/vocabdash/internal/dashboard"
	"github.com/example/vocabdash/internal/quiz"
	"github.com/example/vocabdash/pkg/models"
)

const helpText = `Available commands:
/add original | translation | language [| example | category | difficulty] - add a word
/words [language] - list your words
/search text - find words
/delete id - remove a word
/quiz [count] [lang=xx] [level=easy|medium|hard] - start a quiz
/skip - skip the current question
/stop - end the quiz
/stats [week|month|all] - show your progress
/import - upload words from an .xlsx or .csv file
/help - show this message

During a quiz just type the translation.`

func formatWord(w models.Word) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "• %s - %s (%s, %s)", w.Original, w.Translation, w.Language, w.Difficulty)
	if w.Category != "" {
		fmt.Fprintf(&sb, " #%s", w.Category)
	}
	if w.ReviewCount > 0 {
		fmt.Fprintf(&sb, " %d/%d", w.CorrectCount, w.ReviewCount)
	}
	fmt.Fprintf(&sb, "\n  id: %s", w.ID)
	return sb.String()
}

func formatWordList(title string, words []models.Word, limit int) string {
	if len(words) == 0 {
		return "No words found. Add one with /add."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d):\n", title, len(words))
	for i, w := range words {
		if limit > 0 && i == limit {
			fmt.Fprintf(&sb, "...and %d more", len(words)-limit)
			break
		}
		sb.WriteString(formatWord(w))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatQuestion(s *quiz.Session) string {
	w, ok := s.Current()
	if !ok {
		return "No active question."
	}
	text := fmt.Sprintf("Question %d/%d\nTranslate (%s): %s", s.Index()+1, s.Total(), w.Language, w.Original)
	if w.Example != "" {
		text += "\nExample: " + w.Example
	}
	return text
}

func formatVerdict(correct bool, w models.Word) string {
	if correct {
		return "✅ Correct!"
	}
	return fmt.Sprintf("❌ Wrong. %s = %s", w.Original, w.Translation)
}

func formatSummary(s *quiz.Session) string {
	results := s.Results()
	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	return fmt.Sprintf("🎉 Quiz complete! Score: %d%% (%d of %d answered correctly, %d questions)",
		s.Score(), correct, len(results), s.Total())
}

func formatReport(rep dashboard.Report, loc *time.Location) string {
	p := rep.Progress
	var sb strings.Builder

	sb.WriteString("📊 Your progress\n\n")
	fmt.Fprintf(&sb, "Words: %d\n", p.TotalWords)
	fmt.Fprintf(&sb, "Answers: %d (%d correct)\n", p.TotalAnswers, p.CorrectAnswers)
	fmt.Fprintf(&sb, "Accuracy: %d%%\n", p.Accuracy)
	fmt.Fprintf(&sb, "Streak: %d %s", p.Streak, plural(p.Streak, "day", "days"))
	if rep.StreakAtRisk {
		sb.WriteString(" (take a quiz today to keep it!)")
	}
	sb.WriteString("\n")
	if p.LastStudyDate != nil {
		fmt.Fprintf(&sb, "Last study: %s\n", p.LastStudyDate.In(loc).Format("2006-01-02 15:04"))
	}

	if len(rep.Languages) > 0 {
		sb.WriteString("\nLanguages:\n")
		for _, b := range rep.Languages {
			fmt.Fprintf(&sb, "  %s: %d\n", b.Name, b.Count)
		}
	}

	sb.WriteString("\nDifficulty:\n")
	for _, b := range rep.Difficulties {
		fmt.Fprintf(&sb, "  %s: %d\n", b.Name, b.Count)
	}

	fmt.Fprintf(&sb, "\nActivity (%s):\n", rep.Range)
	if len(rep.Daily) == 0 {
		sb.WriteString("  no answers yet\n")
	}
	for _, d := range rep.Daily {
		fmt.Fprintf(&sb, "  %s  %d/%d\n", d.Date.Format("Jan 02"), d.Correct, d.Total)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatReminder(streak int) string {
	return fmt.Sprintf("🔥 You have a %d-day streak. Answer at least one question today to keep it going! Send /quiz to start.", streak)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
