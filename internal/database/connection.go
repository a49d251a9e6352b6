package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrNotFound is returned by repositories when no row matches
var ErrNotFound = errors.New("record not found")

// Connect opens the database and makes sure the schema exists
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == DriverSQLite {
		if err := ensureDataDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := InitializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ensureDataDir creates the directory of a file-backed SQLite database
func ensureDataDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}
	return nil
}

// InitializeSchema creates the words and quiz_results tables if they don't exist
func InitializeSchema(db *sqlx.DB) error {
	var statements []string
	switch db.DriverName() {
	case DriverPostgres:
		statements = postgresSchema
	case DriverMySQL:
		statements = mysqlSchema
	default:
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		original TEXT NOT NULL,
		translation TEXT NOT NULL,
		language TEXT NOT NULL,
		example TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT 'medium',
		created_at TIMESTAMP NOT NULL,
		last_reviewed TIMESTAMP,
		review_count INTEGER NOT NULL DEFAULT 0,
		correct_count INTEGER NOT NULL DEFAULT 0,
		CHECK (correct_count <= review_count)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_user_created ON words (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		word_id TEXT NOT NULL,
		correct BOOLEAN NOT NULL,
		answered_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_results_user_answered ON quiz_results (user_id, answered_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		original TEXT NOT NULL,
		translation TEXT NOT NULL,
		language TEXT NOT NULL,
		example TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT 'medium',
		created_at TIMESTAMPTZ NOT NULL,
		last_reviewed TIMESTAMPTZ,
		review_count INTEGER NOT NULL DEFAULT 0,
		correct_count INTEGER NOT NULL DEFAULT 0,
		CHECK (correct_count <= review_count)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_user_created ON words (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		word_id TEXT NOT NULL,
		correct BOOLEAN NOT NULL,
		answered_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_results_user_answered ON quiz_results (user_id, answered_at)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
// The DSN must set parseTime=true.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(128) NOT NULL,
		original VARCHAR(512) NOT NULL,
		translation VARCHAR(512) NOT NULL,
		language VARCHAR(64) NOT NULL,
		example VARCHAR(2048) NOT NULL DEFAULT '',
		category VARCHAR(128) NOT NULL DEFAULT '',
		difficulty VARCHAR(16) NOT NULL DEFAULT 'medium',
		created_at DATETIME(6) NOT NULL,
		last_reviewed DATETIME(6) NULL,
		review_count INT NOT NULL DEFAULT 0,
		correct_count INT NOT NULL DEFAULT 0,
		INDEX idx_words_user_created (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(128) NOT NULL,
		word_id VARCHAR(36) NOT NULL,
		correct BOOLEAN NOT NULL,
		answered_at DATETIME(6) NOT NULL,
		INDEX idx_quiz_results_user_answered (user_id, answered_at)
	)`,
}
