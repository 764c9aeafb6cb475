// Package sink holds the outward-facing drivers: the log-store push client,
// the document-store batch writer, and the overflow store for items too large
// for any chunk.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/takibi/seiri/internal/export"
	"go.uber.org/zap"
)

// LokiClient pushes chunk payloads to a Loki-compatible endpoint. All network
// timeouts live here, at the sink boundary; the pipeline itself never blocks
// on I/O.
type LokiClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// LokiOption configures a LokiClient.
type LokiOption func(*LokiClient)

// WithLogger sets a logger for push results.
func WithLogger(l *zap.Logger) LokiOption {
	return func(c *LokiClient) { c.logger = l }
}

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(hc *http.Client) LokiOption {
	return func(c *LokiClient) { c.client = hc }
}

// NewLokiClient creates a push client for the given push endpoint URL.
func NewLokiClient(url string, opts ...LokiOption) *LokiClient {
	c := &LokiClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push sends one payload. The push API answers 204 on success.
func (c *LokiClient) Push(ctx context.Context, payload *export.LokiPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("log store returned %d: %s", resp.StatusCode, string(b))
	}
	if c.logger != nil {
		c.logger.Info("pushed to log store",
			zap.String("url", c.url),
			zap.Int("streams", len(payload.Streams)),
			zap.Int("bytes", len(body)),
		)
	}
	return nil
}
