package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Graded answers by outcome
	AnswersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vocabdash_quiz_answers_total",
		Help: "Graded quiz answers by result.",
	}, []string{"result"})

	SessionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vocabdash_quiz_sessions_started_total",
		Help: "Quiz sessions started.",
	})

	SessionsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vocabdash_quiz_sessions_completed_total",
		Help: "Quiz sessions that reached the last question.",
	})

	// Latency of word store and history log calls to the database
	StoreOperationDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vocabdash_store_operation_duration_seconds",
		Help:    "Duration of persistence operations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"op"})

	StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vocabdash_store_errors_total",
		Help: "Failed persistence operations.",
	}, []string{"op"})

	RemindersSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vocabdash_streak_reminders_sent_total",
		Help: "Streak reminders delivered.",
	})

	WordsImportedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vocabdash_words_imported_total",
		Help: "Words created by spreadsheet imports.",
	})
)

// MustRegister registers every collector with reg
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		AnswersTotal,
		SessionsStartedTotal,
		SessionsCompletedTotal,
		StoreOperationDurationSeconds,
		StoreErrorsTotal,
		RemindersSentTotal,
		WordsImportedTotal,
	)
}

// ObserveStoreOp records the duration and outcome of a persistence call
func ObserveStoreOp(op string, start time.Time, err error) {
	StoreOperationDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreErrorsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveAnswer counts one graded answer
func ObserveAnswer(correct bool) {
	if correct {
		AnswersTotal.WithLabelValues("correct").Inc()
		return
	}
	AnswersTotal.WithLabelValues("incorrect").Inc()
}
