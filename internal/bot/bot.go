package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/auth"
	"github.com/example/vocabdash/internal/dashboard"
	"github.com/example/vocabdash/internal/history"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/quiz"
	"github.com/example/vocabdash/internal/vocabulary"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Telegram rejects longer messages
const maxMessageLength = 4096

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// MainMenuButtons lists the shortcuts shown under /start and /help
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "🎯 Quiz", CallbackData: "quiz"}, {Text: "📊 Stats", CallbackData: "stats"}},
		{{Text: "📚 My words", CallbackData: "words"}, {Text: "📥 Import", CallbackData: "import"}},
	}
}

// api is the subset of *tgbotapi.BotAPI the bot uses
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// userSession is the dashboard of one Telegram user
type userSession struct {
	dash     *dashboard.Dashboard
	loaded   bool
	lastUsed time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api     api
	client  *http.Client
	config  *BotConfig
	words   vocabulary.Repository
	results history.Repository
	limiter *rate.Limiter
	log     *zap.Logger
	now     func() time.Time

	sessions           map[int64]*userSession
	awaitingFileUpload map[int64]bool
}

// Option configures a Bot
type Option func(*Bot)

// WithAPI replaces the Telegram client
func WithAPI(a api) Option {
	return func(b *Bot) { b.api = a }
}

// WithHTTPClient sets the client used to download uploaded files
func WithHTTPClient(c *http.Client) Option {
	return func(b *Bot) { b.client = c }
}

// WithClock overrides time.Now for session expiry
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// WithLogger sets the bot logger
func WithLogger(l *zap.Logger) Option {
	return func(b *Bot) { b.log = logger.OrNop(l) }
}

// New creates a new bot instance
func New(config *BotConfig, words vocabulary.Repository, results history.Repository, opts ...Option) (*Bot, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MessagesPerSecond <= 0 {
		return nil, fmt.Errorf("messages per second must be positive")
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	b := &Bot{
		client:             &http.Client{Timeout: 30 * time.Second},
		config:             config,
		words:              words,
		results:            results,
		limiter:            rate.NewLimiter(rate.Limit(config.MessagesPerSecond), 1),
		log:                zap.NewNop(),
		now:                time.Now,
		sessions:           make(map[int64]*userSession),
		awaitingFileUpload: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.api == nil && config.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	return b, nil
}

// Connect authorizes against the Telegram API
func (b *Bot) Connect() error {
	if b.api != nil {
		return nil
	}
	botAPI, err := tgbotapi.NewBotAPI(b.config.Token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.log.Info("authorized on telegram", zap.String("account", botAPI.Self.UserName))
	return nil
}

// Start handles updates until ctx is cancelled. Updates are processed one
// at a time so actions of a user never overlap.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.Connect(); err != nil {
		return err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// SendStreakReminder implements the scheduler.Notifier interface
func (b *Bot) SendStreakReminder(ctx context.Context, userID string, streak int) error {
	chatID, err := chatIDFor(userID)
	if err != nil {
		return err
	}
	if b.api == nil {
		return fmt.Errorf("bot is not connected")
	}
	return b.send(ctx, tgbotapi.NewMessage(chatID, formatReminder(streak)))
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID, fromID := message.Chat.ID, message.From.ID
	ctx = withTelegramUser(ctx, message.From)

	switch {
	case message.IsCommand():
		b.dispatch(ctx, chatID, fromID, message.Command(), message.CommandArguments())
	case message.Document != nil:
		if !b.awaitingFileUpload[fromID] {
			b.reply(ctx, chatID, "Send /import first, then upload the file.")
			return
		}
		b.withDashboard(ctx, chatID, fromID, func(d *dashboard.Dashboard) {
			b.handleDocument(ctx, chatID, fromID, d, message.Document)
		})
	default:
		b.withDashboard(ctx, chatID, fromID, func(d *dashboard.Dashboard) {
			if d.Quiz.State() != quiz.Active {
				b.reply(ctx, chatID, "I don't understand. Use /help to see the commands.")
				return
			}
			b.handleAnswer(ctx, chatID, d, message.Text)
		})
	}
}

func (b *Bot) dispatch(ctx context.Context, chatID, fromID int64, command, args string) {
	switch command {
	case "start":
		b.resetDashboard(fromID)
		b.withDashboard(ctx, chatID, fromID, func(*dashboard.Dashboard) {
			b.handleStartCommand(ctx, chatID)
		})
		return
	case "help":
		b.replyWithMenu(ctx, chatID, helpText)
		return
	case "import":
		b.handleImportCommand(ctx, chatID, fromID)
		return
	}

	b.withDashboard(ctx, chatID, fromID, func(d *dashboard.Dashboard) {
		switch command {
		case "add":
			b.handleAddCommand(ctx, chatID, d, args)
		case "words":
			b.handleWordsCommand(ctx, chatID, d, args)
		case "search":
			b.handleSearchCommand(ctx, chatID, d, args)
		case "delete":
			b.handleDeleteCommand(ctx, chatID, d, args)
		case "quiz":
			b.handleQuizCommand(ctx, chatID, d, args)
		case "skip":
			b.handleSkipCommand(ctx, chatID, d)
		case "stop":
			b.handleStopCommand(ctx, chatID, d)
		case "stats":
			b.handleStatsCommand(ctx, chatID, d, args)
		default:
			b.reply(ctx, chatID, "Unknown command. Use /help to see the commands.")
		}
	})
}

// handleCallbackQuery maps menu buttons to their commands
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", zap.Error(err))
	}
	if callback.Message == nil || callback.From == nil {
		return
	}
	ctx = withTelegramUser(ctx, callback.From)
	b.dispatch(ctx, callback.Message.Chat.ID, callback.From.ID, callback.Data, "")
}

// withDashboard runs fn with the user's loaded dashboard, replying with
// the failure when the data can't be loaded
func (b *Bot) withDashboard(ctx context.Context, chatID, fromID int64, fn func(*dashboard.Dashboard)) {
	d, err := b.dashboardFor(ctx, fromID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	fn(d)
}

// dashboardFor returns the user's dashboard, loading it on first use and
// again after the session sat idle longer than SessionIdleTimeout
func (b *Bot) dashboardFor(ctx context.Context, fromID int64) (*dashboard.Dashboard, error) {
	now := b.now()
	b.evictIdle(now)

	s, ok := b.sessions[fromID]
	if !ok {
		users := auth.ContextProvider{}
		words := vocabulary.NewStore(b.words, users, vocabulary.WithLogger(b.log))
		log := history.NewLog(b.results, users, history.WithLogger(b.log), history.WithLimit(b.config.HistoryLimit))
		session := quiz.NewSession(words, log, quiz.WithLogger(b.log))
		s = &userSession{
			dash: dashboard.New(words, log, session,
				dashboard.WithLocation(b.config.Location),
				dashboard.WithLogger(b.log),
			),
		}
		b.sessions[fromID] = s
	}
	s.lastUsed = now

	if !s.loaded {
		if err := s.dash.Load(ctx); err != nil {
			return nil, err
		}
		s.loaded = true
	}
	return s.dash, nil
}

// resetDashboard drops the user's cached words, history and quiz
func (b *Bot) resetDashboard(fromID int64) {
	delete(b.sessions, fromID)
}

func (b *Bot) evictIdle(now time.Time) {
	timeout := b.config.SessionIdleTimeout
	if timeout <= 0 {
		return
	}
	for id, s := range b.sessions {
		if now.Sub(s.lastUsed) > timeout {
			delete(b.sessions, id)
			b.log.Debug("idle session evicted", zap.Int64("telegram_id", id))
		}
	}
}

func withTelegramUser(ctx context.Context, from *tgbotapi.User) context.Context {
	return auth.WithUser(ctx, auth.User{ID: userIDFor(from.ID)})
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.send(ctx, tgbotapi.NewMessage(chatID, truncate(text))); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyWithMenu(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, truncate(text))
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	if err := b.send(ctx, msg); err != nil {
		b.log.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	b.reply(ctx, chatID, "❌ "+apperr.UserMessage(err))
}

func (b *Bot) send(ctx context.Context, msg tgbotapi.Chattable) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.api.Send(msg)
	return err
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxMessageLength-1]) + "…"
}
