package quiz

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/metrics"
	"github.com/example/vocabdash/pkg/models"
	"go.uber.org/zap"
)

// DefaultQuestionCount is used by callers that don't ask for a specific size
const DefaultQuestionCount = 10

// State of a quiz session
type State int

const (
	Idle State = iota
	Active
	Completed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// WordSource provides candidate words and records review statistics
type WordSource interface {
	Words() []models.Word
	Lookup(id string) (models.Word, bool)
	Update(ctx context.Context, id string, patch models.WordPatch) (*models.Word, error)
}

// ResultLog receives every graded answer
type ResultLog interface {
	Append(ctx context.Context, result models.QuizResult) (*models.QuizResult, error)
}

// Options selects the words of a new session. Empty filters don't restrict.
type Options struct {
	Language   string
	Difficulty models.Difficulty
	Count      int
}

// Session is a transient, in-memory quiz run. It is not safe for
// concurrent use; callers serialize actions for a user.
type Session struct {
	words   WordSource
	results ResultLog
	rnd     *rand.Rand
	now     func() time.Time
	log     *zap.Logger

	state     State
	questions []models.Word
	index     int
	answered  bool
	pending   *models.QuizResult // graded and written to the word, not yet logged
	graded    []models.QuizResult
}

// Option configures a Session
type Option func(*Session)

// WithRand sets the random source used to pick questions
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) { s.rnd = rnd }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = logger.OrNop(l) }
}

// NewSession creates an idle session
func NewSession(words WordSource, results ResultLog, opts ...Option) *Session {
	s := &Session{
		words:   words,
		results: results,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start picks min(Count, pool size) distinct words at random from the
// words matching the filters. On error the session is left as it was.
func (s *Session) Start(opts Options) error {
	if opts.Count <= 0 {
		return apperr.Validation("question count must be positive, got %d", opts.Count)
	}
	if opts.Difficulty != "" && !opts.Difficulty.Valid() {
		return apperr.Validation("unknown difficulty %q", opts.Difficulty)
	}

	pool := make([]models.Word, 0)
	for _, w := range s.words.Words() {
		if opts.Language != "" && w.Language != opts.Language {
			continue
		}
		if opts.Difficulty != "" && w.Difficulty != opts.Difficulty {
			continue
		}
		pool = append(pool, w)
	}
	if len(pool) == 0 {
		return apperr.ErrNoCandidates
	}

	s.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > opts.Count {
		pool = pool[:opts.Count]
	}

	s.questions = pool
	s.index = 0
	s.answered = false
	s.pending = nil
	s.graded = nil
	s.state = Active

	metrics.SessionsStartedTotal.Inc()
	s.log.Debug("quiz started",
		zap.Int("questions", len(pool)),
		zap.String("language", opts.Language),
		zap.String("difficulty", string(opts.Difficulty)),
	)
	return nil
}

// SubmitAnswer grades answer for the current question, records the review
// on the word and appends the result to the history log. Each question
// accepts one answer. When only the append failed, submitting again for
// the same question retries the append with the first grade and does not
// count the review twice.
func (s *Session) SubmitAnswer(ctx context.Context, wordID, answer string) (bool, error) {
	if s.state != Active {
		return false, apperr.InvalidState("no active question")
	}
	current := s.questions[s.index]
	if wordID != current.ID {
		return false, apperr.InvalidState("word %q is not the current question", wordID)
	}
	if s.answered {
		return false, apperr.InvalidState("current question was already answered")
	}

	if s.pending != nil {
		return s.appendResult(ctx, *s.pending)
	}

	stored, ok := s.words.Lookup(wordID)
	if !ok {
		return false, apperr.NotFound("word", wordID)
	}

	correct := Grade(answer, current.Translation)
	now := s.now()

	review := stored.ReviewCount + 1
	right := stored.CorrectCount
	if correct {
		right++
	}
	patch := models.WordPatch{ReviewCount: &review, CorrectCount: &right, LastReviewed: &now}
	if _, err := s.words.Update(ctx, wordID, patch); err != nil {
		return false, err
	}

	// The review is already on the word; a retry only repeats the append.
	s.pending = &models.QuizResult{WordID: wordID, Correct: correct, Timestamp: now}
	return s.appendResult(ctx, *s.pending)
}

func (s *Session) appendResult(ctx context.Context, result models.QuizResult) (bool, error) {
	saved, err := s.results.Append(ctx, result)
	if err != nil {
		return false, err
	}

	s.pending = nil
	s.graded = append(s.graded, *saved)
	s.answered = true
	metrics.ObserveAnswer(result.Correct)
	return result.Correct, nil
}

// Next moves to the following question, completing the session after the last one
func (s *Session) Next() error {
	if s.state != Active {
		return apperr.InvalidState("no active question")
	}
	s.index++
	s.answered = false
	s.pending = nil
	if s.index >= len(s.questions) {
		s.state = Completed
		metrics.SessionsCompletedTotal.Inc()
		s.log.Debug("quiz completed", zap.Int("score", s.Score()))
	}
	return nil
}

// Abandon discards the session and returns it to Idle
func (s *Session) Abandon() {
	s.state = Idle
	s.questions = nil
	s.index = 0
	s.answered = false
	s.pending = nil
	s.graded = nil
}

// State returns the current session state
func (s *Session) State() State {
	return s.state
}

// Current returns the question being asked, if any
func (s *Session) Current() (models.Word, bool) {
	if s.state != Active {
		return models.Word{}, false
	}
	return s.questions[s.index], true
}

// Index is the zero-based position of the current question
func (s *Session) Index() int {
	return s.index
}

// Total is the number of questions in the session
func (s *Session) Total() int {
	return len(s.questions)
}

// Answered reports whether the current question has been graded
func (s *Session) Answered() bool {
	return s.answered
}

// Results returns the answers graded in this session
func (s *Session) Results() []models.QuizResult {
	out := make([]models.QuizResult, len(s.graded))
	copy(out, s.graded)
	return out
}

// Score is the rounded percentage of correct answers in this session
func (s *Session) Score() int {
	return Score(s.graded)
}

// Grade compares answer to translation ignoring case and surrounding whitespace
func Grade(answer, translation string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == strings.ToLower(strings.TrimSpace(translation))
}

// Score returns round(correct/total*100), or 0 for no results
func Score(results []models.QuizResult) int {
	if len(results) == 0 {
		return 0
	}
	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(results)) * 100))
}
