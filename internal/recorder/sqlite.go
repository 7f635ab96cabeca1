package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"StockInsight/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			run_date     TEXT NOT NULL,
			status       TEXT NOT NULL,
			model        TEXT,
			symbols      INTEGER,
			skipped      TEXT,
			report_path  TEXT,
			started_at   INTEGER,
			finished_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(run_date)`,

		`CREATE TABLE IF NOT EXISTS run_symbols (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES runs(id),
			symbol      TEXT NOT NULL,
			used_symbol TEXT,
			last_date   TEXT,
			price       REAL,
			change_1d   REAL,
			sma20       REAL,
			sma50       REAL,
			sma200      REAL,
			rsi14       REAL,
			macd        REAL,
			macd_signal REAL,
			off_high    REAL,
			trend       TEXT,
			rsi_state   TEXT,
			macd_state  TEXT,
			stance      TEXT,
			confidence  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_symbols_run ON run_symbols(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_run_symbols_symbol ON run_symbols(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable stores NaN as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// RecordRun writes the run and its per-symbol rows in one transaction.
// An empty ID is replaced by a new UUID.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	var started sql.NullInt64
	if !run.StartedAt.IsZero() {
		started = sql.NullInt64{Int64: run.StartedAt.Unix(), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs
		(id, run_date, status, model, symbols, skipped, report_path, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.RunDate, string(run.Status), run.Model, len(run.Records),
		strings.Join(run.Skipped, ","), run.ReportPath, started, finished.Unix(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range run.Records {
		rec, _ := run.Advice.Lookup(f.Requested)
		var confidence sql.NullFloat64
		if rec.Confidence.Set {
			confidence = nullable(rec.Confidence.Value)
		}
		if _, err := tx.Exec(`INSERT INTO run_symbols
			(run_id, symbol, used_symbol, last_date, price, change_1d, sma20, sma50, sma200,
			 rsi14, macd, macd_signal, off_high, trend, rsi_state, macd_state, stance, confidence)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, f.Requested, f.Symbol, f.DateString(),
			nullable(f.Price), nullable(f.Change1d), nullable(f.SMA20), nullable(f.SMA50), nullable(f.SMA200),
			nullable(f.RSI14), nullable(f.MACD), nullable(f.MACDSignal), nullable(f.OffHigh52wPct),
			string(f.Trend), string(f.RSIState), string(f.MACDState), string(rec.Stance), confidence,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", f.Requested, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, run_date, status, symbols, skipped, report_path, finished_at
		FROM runs ORDER BY finished_at DESC, run_date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s        RunSummary
			status   string
			skipped  sql.NullString
			path     sql.NullString
			finished int64
		)
		if err := rows.Scan(&s.ID, &s.RunDate, &status, &s.Symbols, &skipped, &path, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Status = model.RunStatus(status)
		if skipped.String != "" {
			s.Skipped = len(strings.Split(skipped.String, ","))
		}
		s.ReportPath = path.String
		s.FinishedAt = time.Unix(finished, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
