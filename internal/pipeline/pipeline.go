// Package pipeline drives one capture through normalization, categorization,
// prioritization, technique mapping, and export.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/takibi/seiri/internal/capture"
	"github.com/takibi/seiri/internal/config"
	"github.com/takibi/seiri/internal/evidence"
	"github.com/takibi/seiri/internal/export"
	"github.com/takibi/seiri/internal/mitre"
	"github.com/takibi/seiri/internal/models"
	"github.com/takibi/seiri/internal/normalize"
	"github.com/takibi/seiri/internal/priority"
	"github.com/takibi/seiri/internal/storage"
	"github.com/takibi/seiri/internal/taxonomy"
)

// Pipeline runs captures end to end. Storage and the evidence index are
// optional; when nil the corresponding stage is skipped.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.Logger
	store  storage.Storage
	index  evidence.Index
	scorer *priority.Scorer
	mapper *mitre.Mapper
}

// Option configures optional Pipeline dependencies.
type Option func(*Pipeline)

// WithStorage attaches a run store; runs and score records are persisted.
func WithStorage(s storage.Storage) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithIndex attaches an evidence index; normalized items are indexed for search.
func WithIndex(idx evidence.Index) Option {
	return func(p *Pipeline) { p.index = idx }
}

// New creates a Pipeline.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		scorer: priority.NewScorer(priority.DefaultEvidenceKeywords()),
		mapper: mitre.NewMapper(cfg.SampleLimit),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads a capture file and processes it.
func (p *Pipeline) Run(ctx context.Context, path string) (*models.RunResult, error) {
	cap, err := capture.Load(path)
	if err != nil {
		return nil, err
	}
	return p.RunCapture(ctx, cap)
}

// RunCapture processes an already parsed capture. Items flow through every
// stage exactly once; unavailable and error items ride along as data so the
// stage counts stay conserved.
func (p *Pipeline) RunCapture(ctx context.Context, cap *models.Capture) (*models.RunResult, error) {
	start := time.Now()
	caseID := p.resolveCaseID(cap)
	runID := uuid.New().String()

	result := &models.RunResult{
		RunID:     runID,
		CaseID:    caseID,
		Timestamp: cap.Timestamp,
	}
	result.Counts.Artifacts = len(cap.Artifacts)

	// Categorize before normalizing: item ids hash the resolved category.
	var items []models.Item
	for _, artifact := range cap.Artifacts {
		category := taxonomy.Categorize(artifact.SourcePath, artifact.CategoryHint)
		items = append(items, normalize.Normalize(artifact, category)...)
	}
	result.Items = items
	result.Counts.Items = len(items)
	for _, item := range items {
		switch item.Kind {
		case models.ItemUnavailable:
			result.Counts.UnavailableItems++
		case models.ItemError:
			result.Counts.ErrorItems++
		}
	}

	result.Priorities = p.scorer.Report(caseID, cap.Timestamp, items)
	result.Techniques = p.mapper.Run(caseID, cap.Timestamp, items)

	chunker := export.NewChunker(export.EffectiveChunkLimit(
		p.cfg.Sinks.Loki.EntryLimitBytes,
		p.cfg.Sinks.DocStore.DocumentLimitBytes,
		caseID, cap.Timestamp))
	chunks, spills, err := chunker.ChunkByCategory(items)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk items: %w", err)
	}
	result.Chunks = chunks
	for _, categoryChunks := range chunks {
		result.Counts.Chunks += len(categoryChunks)
	}
	result.Counts.OverflowItems = len(spills)

	if err := p.writeOutputs(result, spills); err != nil {
		return nil, err
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
		if err := p.store.SaveScoreRecords(ctx, runID, result.Priorities.Records); err != nil {
			return nil, fmt.Errorf("failed to persist score records: %w", err)
		}
	}

	if p.index != nil {
		if err := p.index.IndexItems(ctx, items); err != nil {
			return nil, fmt.Errorf("failed to index items: %w", err)
		}
	}

	p.logger.Info("run complete",
		zap.String("run_id", runID),
		zap.String("case_id", caseID),
		zap.Int("artifacts", result.Counts.Artifacts),
		zap.Int("items", result.Counts.Items),
		zap.Int("chunks", result.Counts.Chunks),
		zap.Int("overflow", result.Counts.OverflowItems),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// resolveCaseID prefers the capture's own id, then the configured one, then
// generates a fresh id so a run never proceeds unlabeled.
func (p *Pipeline) resolveCaseID(cap *models.Capture) string {
	if cap.CaseID != "" {
		return cap.CaseID
	}
	if p.cfg.CaseID != "" {
		return p.cfg.CaseID
	}
	return "case-" + uuid.New().String()[:8]
}

// FlattenChunks returns all chunks of a run in fixed category order, batch
// order preserved within each category.
func FlattenChunks(chunks map[models.Category][]models.ExportChunk) []models.ExportChunk {
	var out []models.ExportChunk
	for _, category := range models.Categories() {
		out = append(out, chunks[category]...)
	}
	return out
}
