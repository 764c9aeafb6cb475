package export

import (
	"encoding/json"
	"time"

	"github.com/takibi/seiri/internal/models"
)

// MetaDocument is the document-store projection of one item: metadata only,
// no full log content, so the store stays queryable without carrying the raw
// evidence bodies.
type MetaDocument struct {
	ID          string          `json:"id"`
	Kind        models.ItemKind `json:"kind"`
	Category    models.Category `json:"category"`
	Path        string          `json:"path"`
	Timestamp   time.Time       `json:"timestamp"`
	Score       int             `json:"score"`
	ContentHash string          `json:"content_hash,omitempty"`
}

// BuildMetaDocuments projects items into document-store documents, attaching
// scores by item id when a record exists.
func BuildMetaDocuments(items []models.Item, records []models.ScoreRecord, ts time.Time) []MetaDocument {
	scoreByID := make(map[string]models.ScoreRecord, len(records))
	for _, rec := range records {
		scoreByID[rec.ItemID] = rec
	}
	docs := make([]MetaDocument, len(items))
	for i, item := range items {
		doc := MetaDocument{
			ID:        item.ID,
			Kind:      item.Kind,
			Category:  item.Category,
			Path:      item.SourcePath,
			Timestamp: ts,
		}
		if rec, ok := scoreByID[item.ID]; ok {
			doc.Score = rec.Score
			doc.ContentHash = rec.ContentHash
		}
		docs[i] = doc
	}
	return docs
}

// CategoryDocument is one per-category-chunk document for the document store.
// Chunk under EffectiveChunkLimit so the wrapped document stays within the
// store ceiling.
type CategoryDocument struct {
	CaseID    string          `json:"case_id"`
	Category  models.Category `json:"category"`
	BatchID   int             `json:"batch_id"`
	Timestamp time.Time       `json:"timestamp"`
	ItemCount int             `json:"item_count"`
	Items     interface{}     `json:"items"`
}

// documentEnvelopeBytes is the serialized size of a category document wrapped
// around an empty payload, measured with the widest category name, plus slack
// for the batch and count digits.
func documentEnvelopeBytes(caseID string, ts time.Time) int {
	doc := CategoryDocument{
		CaseID:    caseID,
		Category:  models.CategoryConfiguration,
		Timestamp: ts,
		Items:     json.RawMessage("[]"),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return 256
	}
	return len(data) + 32
}

// EffectiveChunkLimit returns the byte budget a chunk payload must satisfy so
// that both ceilings hold: the log-store entry limit on the payload itself,
// and the document-store limit once the payload is wrapped into a
// CategoryDocument.
func EffectiveChunkLimit(entryLimitBytes, documentLimitBytes int, caseID string, ts time.Time) int {
	budget := documentLimitBytes - documentEnvelopeBytes(caseID, ts)
	if budget < 1 {
		budget = 1
	}
	if budget < entryLimitBytes {
		return budget
	}
	return entryLimitBytes
}

// BuildCategoryDocuments wraps chunks into document-store documents.
func BuildCategoryDocuments(caseID string, chunks []models.ExportChunk, ts time.Time) []CategoryDocument {
	docs := make([]CategoryDocument, len(chunks))
	for i, chunk := range chunks {
		docs[i] = CategoryDocument{
			CaseID:    caseID,
			Category:  chunk.Category,
			BatchID:   chunk.BatchID,
			Timestamp: ts,
			ItemCount: chunk.ItemCount,
			Items:     chunk.Payload,
		}
	}
	return docs
}
