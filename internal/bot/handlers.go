package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/dashboard"
	"github.com/example/vocabdash/internal/importer"
	"github.com/example/vocabdash/internal/progress"
	"github.com/example/vocabdash/internal/quiz"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) {
	b.replyWithMenu(ctx, chatID, "Welcome to your vocabulary trainer! 🎓\n\n"+helpText)
}

func (b *Bot) handleAddCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard, args string) {
	fields, err := parseAddArgs(args)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	word, err := d.Words.Add(ctx, fields)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, "✅ Added:\n"+formatWord(*word))
}

func (b *Bot) handleWordsCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard, args string) {
	language := strings.TrimSpace(args)
	if language == "" {
		b.reply(ctx, chatID, formatWordList("Your words", d.Words.Words(), b.config.MaxListedWords))
		return
	}
	b.reply(ctx, chatID, formatWordList("Words in "+language, d.Words.ByLanguage(language), b.config.MaxListedWords))
}

func (b *Bot) handleSearchCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard, args string) {
	term := strings.TrimSpace(args)
	if term == "" {
		b.reply(ctx, chatID, "Use /search text")
		return
	}
	b.reply(ctx, chatID, formatWordList(fmt.Sprintf("Matches for %q", term), d.Words.Search(term), b.config.MaxListedWords))
}

func (b *Bot) handleDeleteCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		b.reply(ctx, chatID, "Use /delete id. The ids are shown by /words.")
		return
	}

	word, known := d.Words.Lookup(id)
	if err := d.Words.Delete(ctx, id); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if known {
		b.reply(ctx, chatID, fmt.Sprintf("🗑 Deleted %s - %s", word.Original, word.Translation))
		return
	}
	b.reply(ctx, chatID, "🗑 Deleted.")
}

func (b *Bot) handleQuizCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard, args string) {
	opts, err := parseQuizArgs(args, b.config.DefaultQuizCount)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if err := d.Quiz.Start(opts); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatQuestion(d.Quiz))
}

// handleAnswer grades text against the current question and moves on
func (b *Bot) handleAnswer(ctx context.Context, chatID int64, d *dashboard.Dashboard, text string) {
	word, ok := d.Quiz.Current()
	if !ok {
		return
	}

	correct, err := d.Quiz.SubmitAnswer(ctx, word.ID, text)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, formatVerdict(correct, word))
	b.advance(ctx, chatID, d)
}

func (b *Bot) handleSkipCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard) {
	word, ok := d.Quiz.Current()
	if !ok {
		b.reply(ctx, chatID, "No quiz in progress. Start one with /quiz.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("⏭ Skipped. %s = %s", word.Original, word.Translation))
	b.advance(ctx, chatID, d)
}

func (b *Bot) advance(ctx context.Context, chatID int64, d *dashboard.Dashboard) {
	if err := d.Quiz.Next(); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if d.Quiz.State() == quiz.Completed {
		b.replyWithMenu(ctx, chatID, formatSummary(d.Quiz))
		return
	}
	b.reply(ctx, chatID, formatQuestion(d.Quiz))
}

func (b *Bot) handleStopCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard) {
	if d.Quiz.State() != quiz.Active {
		b.reply(ctx, chatID, "No quiz in progress.")
		return
	}
	answered := len(d.Quiz.Results())
	score := d.Quiz.Score()
	d.Quiz.Abandon()
	b.replyWithMenu(ctx, chatID, fmt.Sprintf("Quiz stopped after %d %s. Score: %d%%",
		answered, plural(answered, "answer", "answers"), score))
}

func (b *Bot) handleStatsCommand(ctx context.Context, chatID int64, d *dashboard.Dashboard, args string) {
	r, err := progress.ParseRange(args)
	if err != nil {
		b.replyError(ctx, chatID, apperr.Validation("%v, use week, month or all", err))
		return
	}
	b.reply(ctx, chatID, formatReport(d.Report(r), b.config.Location))
}

// handleImportCommand asks for a spreadsheet upload
func (b *Bot) handleImportCommand(ctx context.Context, chatID, fromID int64) {
	b.awaitingFileUpload[fromID] = true
	b.reply(ctx, chatID, "📥 Send an .xlsx or .csv file.\n"+
		"Columns: original, translation, language, example, category, difficulty.\n"+
		"The first row is treated as a header.")
}

func (b *Bot) handleDocument(ctx context.Context, chatID, fromID int64, d *dashboard.Dashboard, doc *tgbotapi.Document) {
	format, err := importer.FormatFromName(doc.FileName)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if doc.FileSize > b.config.MaxImportBytes {
		b.replyTooLarge(ctx, chatID)
		return
	}
	delete(b.awaitingFileUpload, fromID)

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		b.log.Error("failed to resolve uploaded file", zap.String("file_id", doc.FileID), zap.Error(err))
		b.reply(ctx, chatID, "❌ Could not download the file. Please try again.")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Error("failed to download uploaded file", zap.Error(err))
		b.reply(ctx, chatID, "❌ Could not download the file. Please try again.")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b.log.Error("unexpected status downloading file", zap.Int("status", resp.StatusCode))
		b.reply(ctx, chatID, "❌ Could not download the file. Please try again.")
		return
	}

	// FileSize is reported by the client, so the download is capped as well
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(b.config.MaxImportBytes)+1))
	if err != nil {
		b.log.Error("failed to read uploaded file", zap.Error(err))
		b.reply(ctx, chatID, "❌ Could not download the file. Please try again.")
		return
	}
	if len(data) > b.config.MaxImportBytes {
		b.replyTooLarge(ctx, chatID)
		return
	}

	result, err := importer.ImportReader(ctx, d.Words, bytes.NewReader(data), format, importer.DefaultConfig())
	if err != nil {
		b.replyError(ctx, chatID, err)
		if result == nil {
			return
		}
	}
	b.reply(ctx, chatID, formatImportResult(result))
}

func (b *Bot) replyTooLarge(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, fmt.Sprintf("❌ The file is too large, the limit is %d KB.", b.config.MaxImportBytes>>10))
}

func formatImportResult(r *importer.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📥 Import finished: %d added, %d skipped as duplicates, %d with errors.",
		r.Created, r.Skipped, len(r.Errors))
	for i, e := range r.Errors {
		if i == 10 {
			fmt.Fprintf(&sb, "\n...and %d more", len(r.Errors)-10)
			break
		}
		sb.WriteString("\n" + e)
	}
	return sb.String()
}
