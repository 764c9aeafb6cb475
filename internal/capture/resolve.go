package capture

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/takibi/seiri/internal/models"
)

// unavailableMarker is the wire form a collector uses for a source it could
// not read: {"unavailable": {"reason": "...", "observed_at": "..."}}.
type unavailableMarker struct {
	Unavailable *struct {
		Reason     string `json:"reason"`
		ObservedAt string `json:"observed_at"`
	} `json:"unavailable"`
}

// resolveRaw turns a raw JSON content value into exactly one ContentValue
// variant. Null content resolves to an unavailable marker rather than an
// error: a source the collector could not read is data, not a failure.
func resolveRaw(raw json.RawMessage, captureTS time.Time) models.ContentValue {
	if len(raw) == 0 {
		return unavailable("content not captured", captureTS)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		// Undecodable content still produces a value; the normalizer emits
		// an error-kind item for it so counts stay conserved.
		return models.ContentValue{Kind: models.ContentText, Text: string(raw)}
	}

	switch val := v.(type) {
	case nil:
		return unavailable("content not captured", captureTS)
	case string:
		return models.ContentValue{Kind: models.ContentText, Text: val}
	case bool, float64:
		return models.ContentValue{Kind: models.ContentText, Text: canonicalString(val)}
	case []interface{}:
		listing := make([]string, len(val))
		for i, entry := range val {
			listing[i] = canonicalString(entry)
		}
		return models.ContentValue{Kind: models.ContentListing, Listing: listing}
	case map[string]interface{}:
		var marker unavailableMarker
		if len(val) == 1 {
			if err := json.Unmarshal(raw, &marker); err == nil && marker.Unavailable != nil {
				ts := captureTS
				if parsed, err := time.Parse(time.RFC3339, marker.Unavailable.ObservedAt); err == nil {
					ts = parsed.UTC()
				}
				reason := marker.Unavailable.Reason
				if reason == "" {
					reason = "content unavailable"
				}
				return unavailable(reason, ts)
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]models.StructuredField, len(keys))
		for i, k := range keys {
			fields[i] = models.StructuredField{Key: k, Value: canonicalString(val[k])}
		}
		return models.ContentValue{Kind: models.ContentStructured, Structured: fields}
	default:
		return models.ContentValue{Kind: models.ContentText, Text: canonicalString(v)}
	}
}

func unavailable(reason string, ts time.Time) models.ContentValue {
	return models.ContentValue{
		Kind:       models.ContentUnavailable,
		Reason:     reason,
		ObservedAt: ts,
	}
}

// canonicalString is the stable string form of a decoded JSON value: strings
// pass through, numbers and booleans format canonically, and composites are
// compact JSON with sorted keys. Never a dynamic re-evaluation of the text.
func canonicalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		// encoding/json writes map keys in sorted order, so this is stable.
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
