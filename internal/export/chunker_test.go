package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/takibi/seiri/internal/itemid"
	"github.com/takibi/seiri/internal/models"
)

func logItem(category models.Category, path, text string) models.Item {
	return models.Item{
		ID:         itemid.ItemID(category, path, text),
		Kind:       models.ItemLog,
		Category:   category,
		SourcePath: path,
		Text:       text,
	}
}

func decodeItems(t *testing.T, payload json.RawMessage) []models.Item {
	t.Helper()
	var items []models.Item
	if err := json.Unmarshal(payload, &items); err != nil {
		t.Fatalf("payload is not an item array: %v", err)
	}
	return items
}

func TestChunk_packsGreedily(t *testing.T) {
	// 1200 lines of identical size against a 256 KiB limit force multiple
	// chunks; every invariant is checked rather than a hardcoded count.
	const limit = 256 * 1024
	c := NewChunker(limit)

	var items []models.Item
	for i := 0; i < 1200; i++ {
		text := fmt.Sprintf("event %04d %s", i, strings.Repeat("x", 260))
		items = append(items, logItem(models.CategorySystemLogs, "/var/log/syslog", text))
	}

	chunks, spills, err := c.Chunk(models.CategorySystemLogs, items)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(spills) != 0 {
		t.Fatalf("unexpected spills: %d", len(spills))
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var total int
	var reassembled []models.Item
	for i, chunk := range chunks {
		if chunk.BatchID != i {
			t.Errorf("chunk %d has batch id %d", i, chunk.BatchID)
		}
		if chunk.SerializedSize > limit {
			t.Errorf("chunk %d serialized size %d exceeds limit", i, chunk.SerializedSize)
		}
		if chunk.SerializedSize != len(chunk.Payload) {
			t.Errorf("chunk %d size field %d does not match payload length %d", i, chunk.SerializedSize, len(chunk.Payload))
		}
		decoded := decodeItems(t, chunk.Payload)
		if len(decoded) != chunk.ItemCount {
			t.Errorf("chunk %d item count %d, payload has %d", i, chunk.ItemCount, len(decoded))
		}
		total += chunk.ItemCount
		reassembled = append(reassembled, decoded...)
	}
	if total != len(items) {
		t.Errorf("conservation violated: %d items in, %d out", len(items), total)
	}
	for i := range items {
		if reassembled[i].ID != items[i].ID {
			t.Fatalf("order violated at %d", i)
		}
	}
}

func TestChunk_oversizedItemSplit(t *testing.T) {
	// An item whose serialization exceeds the limit but has line structure is
	// halved until the pieces fit; every piece gets a recomputed id and a
	// split_of link.
	const limit = 2048
	c := NewChunker(limit)

	var lines []string
	for i := 0; i < 64; i++ {
		lines = append(lines, fmt.Sprintf("journal entry %02d %s", i, strings.Repeat("y", 80)))
	}
	big := logItem(models.CategorySystemLogs, "/var/log/journal", strings.Join(lines, "\n"))

	chunks, spills, err := c.Chunk(models.CategorySystemLogs, []models.Item{big})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(spills) != 0 {
		t.Fatalf("splittable item must not spill, got %d spills", len(spills))
	}

	var pieces []models.Item
	for _, chunk := range chunks {
		pieces = append(pieces, decodeItems(t, chunk.Payload)...)
	}
	if len(pieces) < 2 {
		t.Fatalf("expected the item to split, got %d pieces", len(pieces))
	}
	var joined []string
	for _, piece := range pieces {
		if piece.RawMeta["split_of"] == "" {
			t.Errorf("piece %s missing split_of", piece.ID)
		}
		if piece.ID == big.ID {
			t.Error("split piece kept the original id")
		}
		wantID := itemid.ItemID(piece.Category, piece.SourcePath, piece.Text)
		if piece.ID != wantID {
			t.Errorf("piece id %s not recomputed from content", piece.ID)
		}
		joined = append(joined, piece.Text)
	}
	if strings.Join(joined, "\n") != big.Text {
		t.Error("split pieces do not reassemble the original text")
	}
}

func TestChunk_unsplittableOverflows(t *testing.T) {
	// A single line can never be halved; it goes to overflow untouched.
	const limit = 1024
	c := NewChunker(limit)

	huge := logItem(models.CategoryFiles, "/mnt/usb/blob", strings.Repeat("z", 4096))
	normal := logItem(models.CategoryFiles, "/mnt/usb/readme", "small")

	chunks, spills, err := c.Chunk(models.CategoryFiles, []models.Item{huge, normal})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(spills) != 1 {
		t.Fatalf("got %d spills, want 1", len(spills))
	}
	spill := spills[0]
	if spill.Entry.ItemID != huge.ID {
		t.Errorf("spill entry id = %s", spill.Entry.ItemID)
	}
	if spill.Item.Text != huge.Text {
		t.Error("spill must carry the full untruncated item")
	}
	if !strings.Contains(spill.Entry.Reason, "exceeds limit") {
		t.Errorf("reason = %q", spill.Entry.Reason)
	}
	// The normal item still ships.
	var shipped int
	for _, chunk := range chunks {
		for _, item := range decodeItems(t, chunk.Payload) {
			shipped++
			if item.ID == huge.ID {
				t.Error("overflowed item must appear in no chunk")
			}
		}
	}
	if shipped != 1 {
		t.Errorf("shipped %d items, want 1", shipped)
	}
}

func TestChunk_empty(t *testing.T) {
	c := NewChunker(1024)
	chunks, spills, err := c.Chunk(models.CategoryOther, nil)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 0 || len(spills) != 0 {
		t.Errorf("empty input produced %d chunks, %d spills", len(chunks), len(spills))
	}
}

func TestChunkByCategory(t *testing.T) {
	c := NewChunker(256 * 1024)
	items := []models.Item{
		logItem(models.CategoryNetwork, "/proc/net/tcp", "row one"),
		logItem(models.CategorySystemLogs, "/var/log/syslog", "started"),
		logItem(models.CategoryNetwork, "/proc/net/udp", "row two"),
	}
	chunks, spills, err := c.ChunkByCategory(items)
	if err != nil {
		t.Fatalf("ChunkByCategory: %v", err)
	}
	if len(spills) != 0 {
		t.Fatalf("unexpected spills")
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d categories, want 2", len(chunks))
	}
	network := chunks[models.CategoryNetwork]
	if len(network) != 1 || network[0].ItemCount != 2 {
		t.Errorf("network chunks = %+v", network)
	}
	// Batch ids restart per category.
	if network[0].BatchID != 0 || chunks[models.CategorySystemLogs][0].BatchID != 0 {
		t.Error("batch ids must start at 0 per category")
	}
	// Original order preserved within the category group.
	decoded := decodeItems(t, network[0].Payload)
	if decoded[0].SourcePath != "/proc/net/tcp" || decoded[1].SourcePath != "/proc/net/udp" {
		t.Error("category group order not preserved")
	}
}
