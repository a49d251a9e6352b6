package bot

import (
	"time"

	"github.com/example/vocabdash/internal/history"
	"github.com/example/vocabdash/internal/quiz"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	Token string
	// Outgoing message rate, Telegram allows about 30 per second
	MessagesPerSecond float64
	// Question count of /quiz without arguments
	DefaultQuizCount int
	// Answers loaded per user for statistics
	HistoryLimit int
	// Zone used to split answers into calendar days
	Location *time.Location
	// Largest accepted /import upload
	MaxImportBytes int
	// Longest word list sent by /words and /search
	MaxListedWords int
	// Cached dashboards unused for longer are dropped and reloaded on next use
	SessionIdleTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		MessagesPerSecond:  20,
		DefaultQuizCount:   quiz.DefaultQuestionCount,
		HistoryLimit:       history.DefaultLimit,
		Location:           time.Local,
		MaxImportBytes:     5 << 20,
		MaxListedWords:     30,
		SessionIdleTimeout: 30 * time.Minute,
	}
}
