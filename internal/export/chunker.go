// Package export serializes item groups into sink-shaped payloads: size-bounded
// chunks, log-store push payloads, document-store batches, and the tree view.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/takibi/seiri/internal/itemid"
	"github.com/takibi/seiri/internal/models"
)

// maxSplitDepth bounds the recursive halving of oversized items. An item
// still oversized at the bound goes to the overflow store; it is never
// truncated, because truncation would corrupt forensic content.
const maxSplitDepth = 16

// Chunker packs items into chunks whose serialized payload never exceeds the
// sink limit.
type Chunker struct {
	limitBytes int
}

// NewChunker creates a chunker for the given hard payload limit.
func NewChunker(limitBytes int) *Chunker {
	return &Chunker{limitBytes: limitBytes}
}

// Spill pairs an overflow entry with the item it describes so callers can
// persist the full content alongside the manifest record.
type Spill struct {
	Entry models.OverflowEntry
	Item  models.Item
}

// Chunk greedily packs items, in original order, into chunks for one
// category. Batch ids are sequential from 0 and scoped to this call. An item
// too large for any chunk is split in half on line boundaries, recursively
// and depth-bounded; items with no line structure left are returned as
// spills and appear in no chunk.
func (c *Chunker) Chunk(category models.Category, items []models.Item) ([]models.ExportChunk, []Spill, error) {
	var chunks []models.ExportChunk
	var overflow []Spill

	// Brackets of the payload array.
	const arrayOverhead = 2

	var current [][]byte
	currentSize := arrayOverhead

	flush := func() {
		if len(current) == 0 {
			return
		}
		payload := joinArray(current)
		chunks = append(chunks, models.ExportChunk{
			BatchID:        len(chunks),
			Category:       category,
			ItemCount:      len(current),
			SerializedSize: len(payload),
			Payload:        payload,
		})
		current = nil
		currentSize = arrayOverhead
	}

	for _, item := range items {
		placeable, spilled, err := c.expand(item, 0)
		if err != nil {
			return nil, nil, err
		}
		overflow = append(overflow, spilled...)
		for _, enc := range placeable {
			added := len(enc)
			if len(current) > 0 {
				added++ // separating comma
			}
			if currentSize+added > c.limitBytes {
				flush()
				added = len(enc)
			}
			current = append(current, enc)
			currentSize += added
		}
	}
	flush()

	return chunks, overflow, nil
}

// expand encodes an item and, when its own serialization exceeds the limit,
// splits its text body in half on line boundaries and retries each half
// independently. Returns encodings that each fit a chunk on their own, plus
// spills for anything unsplittable.
func (c *Chunker) expand(item models.Item, depth int) ([][]byte, []Spill, error) {
	enc, err := json.Marshal(item)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize item %s: %w", item.ID, err)
	}
	if len(enc)+2 <= c.limitBytes {
		return [][]byte{enc}, nil, nil
	}

	lines := strings.Split(item.Text, "\n")
	if len(lines) < 2 || depth >= maxSplitDepth {
		spill := Spill{
			Entry: models.OverflowEntry{
				ItemID:     item.ID,
				Category:   item.Category,
				SourcePath: item.SourcePath,
				SizeBytes:  len(enc),
				Reason:     fmt.Sprintf("serialized size %d exceeds limit %d and item has no splittable body", len(enc), c.limitBytes),
			},
			Item: item,
		}
		return nil, []Spill{spill}, nil
	}

	mid := len(lines) / 2
	first := c.derive(item, strings.Join(lines[:mid], "\n"))
	second := c.derive(item, strings.Join(lines[mid:], "\n"))

	encs, spilled, err := c.expand(first, depth+1)
	if err != nil {
		return nil, nil, err
	}
	moreEncs, moreSpilled, err := c.expand(second, depth+1)
	if err != nil {
		return nil, nil, err
	}
	return append(encs, moreEncs...), append(spilled, moreSpilled...), nil
}

// derive builds a split half of an item. The id is recomputed from the new
// text so split items keep the deterministic id contract; split_of links the
// halves back to their origin for reassembly.
func (c *Chunker) derive(item models.Item, text string) models.Item {
	meta := make(map[string]string, len(item.RawMeta)+1)
	for k, v := range item.RawMeta {
		meta[k] = v
	}
	meta["split_of"] = item.ID
	return models.Item{
		ID:         itemid.ItemID(item.Category, item.SourcePath, text),
		Kind:       item.Kind,
		Category:   item.Category,
		SourcePath: item.SourcePath,
		Text:       text,
		RawMeta:    meta,
	}
}

func joinArray(encoded [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, enc := range encoded {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(enc)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// ChunkByCategory groups items by category, preserving original order inside
// each group, and chunks every group independently. Categories appear in the
// fixed taxonomy order so output is deterministic.
func (c *Chunker) ChunkByCategory(items []models.Item) (map[models.Category][]models.ExportChunk, []Spill, error) {
	grouped := make(map[models.Category][]models.Item)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	out := make(map[models.Category][]models.ExportChunk)
	var overflow []Spill
	for _, category := range models.Categories() {
		group := grouped[category]
		if len(group) == 0 {
			continue
		}
		chunks, spilled, err := c.Chunk(category, group)
		if err != nil {
			return nil, nil, err
		}
		if len(chunks) > 0 {
			out[category] = chunks
		}
		overflow = append(overflow, spilled...)
	}
	return out, overflow, nil
}
