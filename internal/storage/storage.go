// Package storage persists run metadata and score records.
package storage

import (
	"context"

	"github.com/takibi/seiri/internal/models"
)

// RunSummary is the persisted view of one pipeline run.
type RunSummary struct {
	RunID     string             `json:"run_id"`
	CaseID    string             `json:"case_id"`
	CreatedAt string             `json:"created_at"`
	Counts    models.StageCounts `json:"counts"`
}

// Storage defines run and score-record persistence operations.
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, result *models.RunResult) error
	GetRun(ctx context.Context, runID string) (*RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]*RunSummary, error)

	// Score record operations
	SaveScoreRecords(ctx context.Context, runID string, records []models.ScoreRecord) error
	ListPriorities(ctx context.Context, runID string, minScore, limit int) ([]models.ScoreRecord, error)

	// Stats
	CountRuns(ctx context.Context) (int64, error)
	CountScoreRecords(ctx context.Context) (int64, error)

	Close() error
}
