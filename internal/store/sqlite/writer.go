// Package sqlite persists entry signals and run summaries. The core mandates
// no on-disk format; this store is the collaborator-facing default.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"bxscan/internal/report"

	_ "github.com/mattn/go-sqlite3"
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/bxscan.db"
}

// Writer is a single-connection SQLite writer with per-report transactions.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks and the reader.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer connection pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entry_signals (
			symbol        TEXT    NOT NULL,
			fine_ts       INTEGER NOT NULL,
			price         REAL    NOT NULL,
			fine_state    TEXT    NOT NULL,
			fine_value    REAL    NOT NULL,
			coarse_ts     INTEGER NOT NULL,
			coarse_state  TEXT    NOT NULL,
			coarse_value  REAL    NOT NULL,
			PRIMARY KEY (symbol, fine_ts)
		);

		CREATE TABLE IF NOT EXISTS run_summaries (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol        TEXT    NOT NULL,
			generated_at  INTEGER NOT NULL,
			signal_count  INTEGER NOT NULL,
			skipped_conf  INTEGER NOT NULL,
			fine_stats    TEXT    NOT NULL,
			coarse_stats  TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_run_summaries_symbol ON run_summaries(symbol, generated_at);
	`)
	return err
}

// SaveReport persists a run's signals and summary in one transaction.
// Signal inserts use INSERT OR REPLACE keyed by (symbol, fine_ts), so
// re-running the same analysis never duplicates rows.
func (w *Writer) SaveReport(rep *report.Report) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	sigStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entry_signals
		(symbol, fine_ts, price, fine_state, fine_value, coarse_ts, coarse_state, coarse_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer sigStmt.Close()

	for _, s := range rep.Signals {
		if _, err := sigStmt.Exec(
			s.Symbol, s.FineIndexDate.Unix(), s.Price, string(s.FineState), s.FineValue,
			s.ConfirmingCoarseDate.Unix(), string(s.ConfirmingState), s.ConfirmingValue,
		); err != nil {
			return fmt.Errorf("sqlite insert signal: %w", err)
		}
	}

	fineStats, _ := json.Marshal(rep.Fine)
	coarseStats, _ := json.Marshal(rep.Coarse)
	if _, err := tx.Exec(`
		INSERT INTO run_summaries (symbol, generated_at, signal_count, skipped_conf, fine_stats, coarse_stats)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rep.Symbol, rep.GeneratedAt.Unix(), len(rep.Signals), rep.SkippedConfirmations,
		string(fineStats), string(coarseStats),
	); err != nil {
		return fmt.Errorf("sqlite insert summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
