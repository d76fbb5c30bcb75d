package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aqi_backend/internal/models"
)

// ErrMalformedPayload reports a line that parsed as JSON but is not an object
// of numeric fields, or is empty after trimming.
var ErrMalformedPayload = errors.New("malformed sensor payload")

// DecodeRecord parses one trimmed firmware line into a SensorRecord. The line
// must be a JSON object whose values are all numbers. The firmware's "PM25"
// key is renamed to the canonical "PM2.5", overwriting any value already
// present under the canonical name.
func DecodeRecord(line string) (models.SensorRecord, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedPayload)
	}

	var rec models.SensorRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, fmt.Errorf("decode sensor line: %w", err)
	}
	// "null" unmarshals without error but leaves the map nil.
	if rec == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}

	if v, ok := rec[firmwarePM25Alias]; ok {
		rec[FieldPM25] = v
		delete(rec, firmwarePM25Alias)
	}
	return rec, nil
}
