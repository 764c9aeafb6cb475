// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/takibi/seiri/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		artifact_count INTEGER NOT NULL,
		item_count INTEGER NOT NULL,
		unavailable_items INTEGER NOT NULL,
		error_items INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL,
		overflow_items INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_case_id ON runs(case_id);

	CREATE TABLE IF NOT EXISTS score_records (
		run_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		category TEXT NOT NULL,
		source_path TEXT,
		score INTEGER NOT NULL,
		reasons TEXT,
		content_hash TEXT,
		PRIMARY KEY (run_id, item_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_score_records_score ON score_records(run_id, score DESC);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts the run summary row.
func (s *SQLiteStorage) SaveRun(ctx context.Context, result *models.RunResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, case_id, created_at, artifact_count, item_count,
		   unavailable_items, error_items, chunk_count, overflow_items)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.CaseID, result.Timestamp.UTC().Format(time.RFC3339),
		result.Counts.Artifacts, result.Counts.Items,
		result.Counts.UnavailableItems, result.Counts.ErrorItems,
		result.Counts.Chunks, result.Counts.OverflowItems,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.RunID, err)
	}
	return nil
}

// GetRun returns one run summary by id.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, case_id, created_at, artifact_count, item_count,
		   unavailable_items, error_items, chunk_count, overflow_items
		 FROM runs WHERE run_id = ?`, runID,
	)
	summary, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, case_id, created_at, artifact_count, item_count,
		   unavailable_items, error_items, chunk_count, overflow_items
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RunSummary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunSummary, error) {
	var summary RunSummary
	err := row.Scan(
		&summary.RunID, &summary.CaseID, &summary.CreatedAt,
		&summary.Counts.Artifacts, &summary.Counts.Items,
		&summary.Counts.UnavailableItems, &summary.Counts.ErrorItems,
		&summary.Counts.Chunks, &summary.Counts.OverflowItems,
	)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// SaveScoreRecords inserts all records for a run in one transaction. Item ids
// are content-derived, so a log line repeated within one source yields
// records with the same id; duplicates collapse to the first occurrence
// instead of failing the run.
func (s *SQLiteStorage) SaveScoreRecords(ctx context.Context, runID string, records []models.ScoreRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO score_records (run_id, item_id, category, source_path, score, reasons, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		reasonsJSON, err := json.Marshal(rec.Reasons)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to marshal reasons for %s: %w", rec.ItemID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, rec.ItemID, string(rec.Category), rec.SourcePath,
			rec.Score, string(reasonsJSON), rec.ContentHash,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert score record %s: %w", rec.ItemID, err)
		}
	}
	return tx.Commit()
}

// ListPriorities returns records for a run with score >= minScore, highest
// first. An empty runID means the most recent run.
func (s *SQLiteStorage) ListPriorities(ctx context.Context, runID string, minScore, limit int) ([]models.ScoreRecord, error) {
	if runID == "" {
		row := s.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY created_at DESC LIMIT 1`)
		if err := row.Scan(&runID); err != nil {
			if err == sql.ErrNoRows {
				return []models.ScoreRecord{}, nil
			}
			return nil, err
		}
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, category, source_path, score, reasons, content_hash
		 FROM score_records
		 WHERE run_id = ? AND score >= ?
		 ORDER BY score DESC, item_id LIMIT ?`,
		runID, minScore, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScoreRecord{}
	for rows.Next() {
		var rec models.ScoreRecord
		var category, reasonsJSON string
		if err := rows.Scan(&rec.ItemID, &category, &rec.SourcePath, &rec.Score, &reasonsJSON, &rec.ContentHash); err != nil {
			return nil, err
		}
		rec.Category = models.Category(category)
		if reasonsJSON != "" {
			if err := json.Unmarshal([]byte(reasonsJSON), &rec.Reasons); err != nil {
				return nil, fmt.Errorf("failed to unmarshal reasons for %s: %w", rec.ItemID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountRuns returns the number of stored runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

// CountScoreRecords returns the number of stored score records.
func (s *SQLiteStorage) CountScoreRecords(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_records`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
