package ingest

import (
	"fmt"

	"aqi_backend/internal/models"
)

// MissingFeatureError reports the first required feature absent from a record
// at projection time. Validation normally catches this earlier; the projector
// still guards so it never emits a short vector.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("feature %s missing from record", e.Feature)
}

// ProjectFeatures extracts the model input vector from a validated record,
// in the fixed required-feature order. Extra fields in rec are ignored.
func ProjectFeatures(rec models.SensorRecord) ([]float64, error) {
	out := make([]float64, 0, len(requiredFeatures))
	for _, f := range requiredFeatures {
		v, ok := rec[f]
		if !ok {
			return nil, &MissingFeatureError{Feature: f}
		}
		out = append(out, v)
	}
	return out, nil
}
