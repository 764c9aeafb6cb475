package evidence

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/takibi/seiri/internal/models"
)

// indexedItem is the document shape stored in the index.
type indexedItem struct {
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
	Category   string `json:"category"`
	Kind       string `json:"kind"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// opened and reused; item ids are content-derived, so re-indexing the same
// capture overwrites identical documents and stays idempotent.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): forensic tokens
	// like "sshd" or "btmp" must match exactly, not via stems.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("source_path", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open evidence index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create evidence index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexItems indexes items in one batch.
func (b *BleveIndex) IndexItems(ctx context.Context, items []models.Item) error {
	batch := b.index.NewBatch()
	for _, item := range items {
		doc := indexedItem{
			Text:       item.Text,
			SourcePath: item.SourcePath,
			Category:   string(item.Category),
			Kind:       string(item.Kind),
		}
		if err := batch.Index(item.ID, doc); err != nil {
			return fmt.Errorf("failed to batch item %s: %w", item.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index items: %w", err)
	}
	return nil
}

// Search runs a match query over text and source_path, optionally narrowed to
// one category with a conjunction term query.
func (b *BleveIndex) Search(ctx context.Context, query string, category string, limit int) ([]*Hit, error) {
	textQuery := bleve.NewMatchQuery(query)
	textQuery.SetField("text")
	pathQuery := bleve.NewMatchQuery(query)
	pathQuery.SetField("source_path")
	base := bleve.NewDisjunctionQuery(textQuery, pathQuery)

	var searchQuery = bleve.NewConjunctionQuery(base)
	if category != "" {
		catQuery := bleve.NewTermQuery(category)
		catQuery.SetField("category")
		searchQuery.AddQuery(catQuery)
	}

	req := bleve.NewSearchRequest(searchQuery)
	req.Size = limit
	req.Fields = []string{"*"}
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("evidence search failed: %w", err)
	}

	hits := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		h := &Hit{ItemID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["text"].(string); ok {
			h.Text = v
		}
		if v, ok := hit.Fields["source_path"].(string); ok {
			h.SourcePath = v
		}
		if v, ok := hit.Fields["category"].(string); ok {
			h.Category = v
		}
		hits[i] = h
	}
	return hits, nil
}

// Count returns the number of indexed items.
func (b *BleveIndex) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
