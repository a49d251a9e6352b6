package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/quiz"
	"github.com/example/vocabdash/pkg/models"
)

const userIDPrefix = "tg-"

// userIDFor maps a Telegram account to the owner id of its words
func userIDFor(telegramID int64) string {
	return userIDPrefix + strconv.FormatInt(telegramID, 10)
}

// chatIDFor reverses userIDFor; private chats share the user's id
func chatIDFor(userID string) (int64, error) {
	if !strings.HasPrefix(userID, userIDPrefix) {
		return 0, fmt.Errorf("user %q is not a Telegram user", userID)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(userID, userIDPrefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user %q is not a Telegram user: %w", userID, err)
	}
	return id, nil
}

// parseAddArgs parses "original | translation | language [| example | category | difficulty]"
func parseAddArgs(args string) (models.WordFields, error) {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return models.WordFields{}, apperr.Validation("use /add original | translation | language [| example | category | difficulty]")
	}
	if len(parts) > 6 {
		return models.WordFields{}, apperr.Validation("too many fields, at most 6 are allowed")
	}

	fields := models.WordFields{
		Original:    parts[0],
		Translation: parts[1],
		Language:    parts[2],
	}
	if len(parts) > 3 {
		fields.Example = parts[3]
	}
	if len(parts) > 4 {
		fields.Category = parts[4]
	}
	if len(parts) > 5 {
		d, err := models.ParseDifficulty(parts[5])
		if err != nil {
			return models.WordFields{}, apperr.Validation("%v", err)
		}
		fields.Difficulty = d
	}
	return fields, nil
}

// parseQuizArgs parses "[count] [lang=xx] [level=easy|medium|hard]"
func parseQuizArgs(args string, defaultCount int) (quiz.Options, error) {
	opts := quiz.Options{Count: defaultCount}
	countSet := false

	for _, tok := range strings.Fields(args) {
		key, value, hasValue := strings.Cut(tok, "=")
		switch {
		case !hasValue:
			if countSet {
				return opts, apperr.Validation("unexpected argument %q", tok)
			}
			n, err := strconv.Atoi(tok)
			if err != nil {
				return opts, apperr.Validation("question count must be a number, got %q", tok)
			}
			opts.Count = n
			countSet = true
		case strings.EqualFold(key, "lang") || strings.EqualFold(key, "language"):
			opts.Language = value
		case strings.EqualFold(key, "level") || strings.EqualFold(key, "difficulty"):
			if value == "" {
				continue
			}
			d, err := models.ParseDifficulty(value)
			if err != nil {
				return opts, apperr.Validation("%v", err)
			}
			opts.Difficulty = d
		default:
			return opts, apperr.Validation("unknown option %q", key)
		}
	}
	return opts, nil
}
