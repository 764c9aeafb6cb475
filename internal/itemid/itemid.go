// Package itemid derives stable, content-addressed item identifiers.
package itemid

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/takibi/seiri/internal/models"
)

const (
	logPrefix   = "log-"
	errorPrefix = "error-"

	hashLen = 12
)

// ItemID returns a deterministic ID over (category, source path, text).
// The same logical entry always yields the same ID, so re-normalizing
// identical input is idempotent.
func ItemID(category models.Category, sourcePath, text string) string {
	return logPrefix + digest(category, sourcePath, text)
}

// ErrorID returns the ID for an error-kind item carrying a failure reason.
func ErrorID(category models.Category, sourcePath, reason string) string {
	return errorPrefix + digest(category, sourcePath, reason)
}

func digest(category models.Category, sourcePath, text string) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(sourcePath))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:hashLen]
}
