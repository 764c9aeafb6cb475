package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/takibi/seiri/internal/models"
)

// StreamLabels are the Loki stream labels for one chunk. Label values are
// strings per the push API.
type StreamLabels struct {
	Category string `json:"category"`
	BatchID  string `json:"batch_id"`
	Count    string `json:"count"`
}

// LokiStream carries one chunk: each value is [timestamp_nanos, json_line].
type LokiStream struct {
	Stream StreamLabels `json:"stream"`
	Values [][]string   `json:"values"`
}

// LokiPayload is the push API body: one stream per chunk.
type LokiPayload struct {
	Streams []LokiStream `json:"streams"`
}

// ToNanos converts the capture timestamp to the nanosecond epoch string the
// log store expects.
func ToNanos(ts time.Time) string {
	return strconv.FormatInt(ts.UnixNano(), 10)
}

// BuildLokiPayload converts chunks into a push payload. Every item in a chunk
// becomes one value line tagged with the capture timestamp; chunk sizing has
// already guaranteed each line is under the sink's per-entry limit.
func BuildLokiPayload(chunks []models.ExportChunk, ts time.Time) (*LokiPayload, error) {
	nanos := ToNanos(ts)
	payload := &LokiPayload{Streams: make([]LokiStream, 0, len(chunks))}
	for _, chunk := range chunks {
		var lines []json.RawMessage
		if err := json.Unmarshal(chunk.Payload, &lines); err != nil {
			return nil, fmt.Errorf("chunk %s/%d has a non-array payload: %w", chunk.Category, chunk.BatchID, err)
		}
		values := make([][]string, len(lines))
		for i, line := range lines {
			values[i] = []string{nanos, string(line)}
		}
		payload.Streams = append(payload.Streams, LokiStream{
			Stream: StreamLabels{
				Category: string(chunk.Category),
				BatchID:  strconv.Itoa(chunk.BatchID),
				Count:    strconv.Itoa(chunk.ItemCount),
			},
			Values: values,
		})
	}
	return payload, nil
}
