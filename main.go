package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/vocabdash/internal/auth"
	"github.com/example/vocabdash/internal/bot"
	"github.com/example/vocabdash/internal/config"
	"github.com/example/vocabdash/internal/database"
	"github.com/example/vocabdash/internal/importer"
	"github.com/example/vocabdash/internal/logger"
	"github.com/example/vocabdash/internal/metrics"
	"github.com/example/vocabdash/internal/scheduler"
	"github.com/example/vocabdash/internal/vocabulary"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "import" {
		err = runImport(ctx, cfg, log, os.Args[2:])
	} else {
		err = runBot(ctx, cfg, log)
	}
	if err != nil {
		log.Error("exiting with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func runBot(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	words := database.NewWordRepository(db)
	results := database.NewQuizResultRepository(db)

	botConfig := bot.DefaultConfig()
	botConfig.Token = cfg.Telegram.Token
	botConfig.MessagesPerSecond = cfg.Telegram.MessagesPerSecond
	botConfig.DefaultQuizCount = cfg.Quiz.DefaultCount
	botConfig.HistoryLimit = cfg.Quiz.HistoryLimit
	botConfig.Location = loc

	b, err := bot.New(botConfig, words, results, bot.WithLogger(log))
	if err != nil {
		return err
	}
	if err := b.Connect(); err != nil {
		return err
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux()}
		go func() {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown", zap.Error(err))
			}
		}()
	}

	if cfg.Reminder.Enabled {
		s := scheduler.New(results, b,
			scheduler.WithLocation(loc),
			scheduler.WithHour(cfg.Reminder.Hour),
			scheduler.WithHistoryLimit(cfg.Quiz.HistoryLimit),
			scheduler.WithLogger(log),
		)
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()
	}

	log.Info("bot started, press Ctrl+C to stop")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("bot stopped")
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// runImport loads a spreadsheet into one user's vocabulary:
//
//	vocabdash import -user tg-123 -file words.xlsx
func runImport(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	userID := fs.String("user", "", "owner of the imported words")
	file := fs.String("file", "", "path to an .xlsx or .csv file")
	sheet := fs.String("sheet", "", "sheet name, default is the first sheet")
	language := fs.String("lang", "", "language for rows without one")
	startRow := fs.Int("start-row", 2, "first data row, 1-based")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" || *file == "" {
		fs.Usage()
		return fmt.Errorf("both -user and -file are required")
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	store := vocabulary.NewStore(database.NewWordRepository(db),
		auth.Static{User: &auth.User{ID: *userID}},
		vocabulary.WithLogger(log),
	)

	importConfig := importer.DefaultConfig()
	importConfig.FilePath = *file
	importConfig.SheetName = *sheet
	importConfig.DefaultLanguage = *language
	importConfig.StartRow = *startRow

	result, err := importer.ImportWords(ctx, store, importConfig)
	if result != nil {
		log.Info("import finished",
			zap.String("user_id", *userID),
			zap.Int("processed", result.TotalProcessed),
			zap.Int("created", result.Created),
			zap.Int("skipped", result.Skipped),
			zap.Int("errors", len(result.Errors)),
		)
		for _, e := range result.Errors {
			log.Warn("row rejected", zap.String("detail", e))
		}
	}
	return err
}
