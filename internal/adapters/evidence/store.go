// Package evidence provides the persistence adapters for classification
// evidence: an in-memory store for single-process deployments and SQLite and
// MySQL stores for durable records.
package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matej/doc-triage/internal/core"
)

// timeFormat is the column format used by the SQL stores. Values are always
// rendered in UTC so they compare correctly against datetime('now') and
// UTC_TIMESTAMP().
const timeFormat = "2006-01-02 15:04:05"

func encodeResult(result *core.ClassificationResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode classification result: %w", err)
	}
	return string(data), nil
}

func decodeResult(data string) (*core.ClassificationResult, error) {
	var result core.ClassificationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode classification result: %w", err)
	}
	return &result, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}
