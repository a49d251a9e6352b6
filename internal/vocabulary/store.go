// Package vocabulary implements the word store: the user's vocabulary
// collection and an in-memory snapshot that the quiz and progress views
// read without further I/O.
package vocabulary

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/auth"
	"github.com/example/vocabdash/internal/database"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/metrics"
	"github.com/example/vocabdash/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the document collaborator for words.
// GetByID must return database.ErrNotFound for a missing word.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Word, error)
	GetByID(ctx context.Context, userID, id string) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
	Update(ctx context.Context, word *models.Word) error
	Delete(ctx context.Context, userID, id string) error
}

// Store owns the current user's vocabulary
type Store struct {
	repo  Repository
	users auth.Provider
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	owner string
	words []models.Word // newest first
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for store failures
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = logger.OrNop(l) }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates a word store backed by repo
func NewStore(repo Repository, users auth.Provider, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		users: users,
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List loads all words of the current user, newest first, and replaces the snapshot
func (s *Store) List(ctx context.Context) ([]models.Word, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	words, err := s.repo.ListByUser(ctx, user.ID)
	metrics.ObserveStoreOp("list_words", start, err)
	if err != nil {
		return nil, s.storeError("list words", user.ID, err)
	}

	s.words = words
	return s.Words(), nil
}

// Add validates and creates a new word
func (s *Store) Add(ctx context.Context, fields models.WordFields) (*models.Word, error) {
	word, err := newWord(fields)
	if err != nil {
		return nil, err
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	word.ID = s.newID()
	word.UserID = user.ID
	word.CreatedAt = s.now()

	start := time.Now()
	err = s.repo.Create(ctx, &word)
	metrics.ObserveStoreOp("add_word", start, err)
	if err != nil {
		return nil, s.storeError("add word", user.ID, err)
	}

	s.words = append([]models.Word{word}, s.words...)
	s.log.Debug("word added", zap.String("user_id", user.ID), zap.String("word_id", word.ID))
	return &word, nil
}

// Update merges patch into the word with the given id
func (s *Store) Update(ctx context.Context, id string, patch models.WordPatch) (*models.Word, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	current, err := s.repo.GetByID(ctx, user.ID, id)
	metrics.ObserveStoreOp("get_word", start, err)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("word", id)
	}
	if err != nil {
		return nil, s.storeError("load word", user.ID, err)
	}

	patch = trimPatch(patch)
	merged := patch.Apply(*current)
	if err := validate(merged); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		s.replace(merged)
		return &merged, nil
	}

	start = time.Now()
	err = s.repo.Update(ctx, &merged)
	metrics.ObserveStoreOp("update_word", start, err)
	if err != nil {
		return nil, s.storeError("update word", user.ID, err)
	}

	s.replace(merged)
	return &merged, nil
}

// Delete removes a word. Deleting an absent word succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.repo.Delete(ctx, user.ID, id)
	metrics.ObserveStoreOp("delete_word", start, err)
	if err != nil {
		return s.storeError("delete word", user.ID, err)
	}

	for i := range s.words {
		if s.words[i].ID == id {
			s.words = append(s.words[:i:i], s.words[i+1:]...)
			break
		}
	}
	return nil
}

// Words returns a copy of the loaded snapshot
func (s *Store) Words() []models.Word {
	out := make([]models.Word, len(s.words))
	copy(out, s.words)
	return out
}

// Lookup finds a loaded word by id
func (s *Store) Lookup(id string) (models.Word, bool) {
	for _, w := range s.words {
		if w.ID == id {
			return w, true
		}
	}
	return models.Word{}, false
}

// ByLanguage filters the snapshot by exact language tag
func (s *Store) ByLanguage(language string) []models.Word {
	return s.Filter(language, "")
}

// Filter returns loaded words matching the optional language and difficulty
func (s *Store) Filter(language string, difficulty models.Difficulty) []models.Word {
	out := []models.Word{}
	for _, w := range s.words {
		if language != "" && w.Language != language {
			continue
		}
		if difficulty != "" && w.Difficulty != difficulty {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Search matches term case-insensitively against original and translation
func (s *Store) Search(term string) []models.Word {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []models.Word{}
	for _, w := range s.words {
		if strings.Contains(strings.ToLower(w.Original), term) ||
			strings.Contains(strings.ToLower(w.Translation), term) {
			out = append(out, w)
		}
	}
	return out
}

// Languages returns the distinct language tags, sorted
func (s *Store) Languages() []string {
	return distinct(s.words, func(w models.Word) string { return w.Language })
}

// Categories returns the distinct non-empty categories, sorted
func (s *Store) Categories() []string {
	return distinct(s.words, func(w models.Word) string { return w.Category })
}

func (s *Store) currentUser(ctx context.Context) (*auth.User, error) {
	user, err := auth.Require(ctx, s.users)
	if err != nil {
		s.log.Warn("word store called without user", zap.Error(err))
		s.owner, s.words = "", nil
		return nil, err
	}
	if user.ID != s.owner {
		s.owner, s.words = user.ID, nil
	}
	return user, nil
}

func (s *Store) storeError(op, userID string, err error) error {
	s.log.Error("word store operation failed",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.Error(err),
	)
	return apperr.Store(op, err)
}

// replace swaps the snapshot entry with the same id, or inserts w by creation time
func (s *Store) replace(w models.Word) {
	for i := range s.words {
		if s.words[i].ID == w.ID {
			s.words[i] = w
			return
		}
	}
	i := sort.Search(len(s.words), func(i int) bool {
		return !s.words[i].CreatedAt.After(w.CreatedAt)
	})
	s.words = append(s.words, models.Word{})
	copy(s.words[i+1:], s.words[i:])
	s.words[i] = w
}

func newWord(fields models.WordFields) (models.Word, error) {
	difficulty, err := models.ParseDifficulty(string(fields.Difficulty))
	if err != nil {
		return models.Word{}, apperr.Validation("%v", err)
	}
	w := models.Word{
		Original:    strings.TrimSpace(fields.Original),
		Translation: strings.TrimSpace(fields.Translation),
		Language:    strings.TrimSpace(fields.Language),
		Example:     strings.TrimSpace(fields.Example),
		Category:    strings.TrimSpace(fields.Category),
		Difficulty:  difficulty,
	}
	return w, validate(w)
}

// trimPatch strips surrounding whitespace from text fields, as Add does
func trimPatch(p models.WordPatch) models.WordPatch {
	for _, f := range []**string{&p.Original, &p.Translation, &p.Language, &p.Example, &p.Category} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return p
}

func validate(w models.Word) error {
	switch {
	case strings.TrimSpace(w.Original) == "":
		return apperr.Validation("original is required")
	case strings.TrimSpace(w.Translation) == "":
		return apperr.Validation("translation is required")
	case strings.TrimSpace(w.Language) == "":
		return apperr.Validation("language is required")
	case !w.Difficulty.Valid():
		return apperr.Validation("unknown difficulty %q", w.Difficulty)
	case w.ReviewCount < 0 || w.CorrectCount < 0:
		return apperr.Validation("review counts must not be negative")
	case w.CorrectCount > w.ReviewCount:
		return apperr.Validation("correct count %d exceeds review count %d", w.CorrectCount, w.ReviewCount)
	}
	return nil
}

func distinct(words []models.Word, key func(models.Word) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, w := range words {
		k := key(w)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
