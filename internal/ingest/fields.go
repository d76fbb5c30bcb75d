// Package ingest turns one raw firmware line into the ordered feature vector
// the regression model consumes: decode, validate, project. Every stage fails
// fast and returns a typed error; nothing here retries or buffers.
package ingest

// Canonical field names. The board firmware emits the compact "PM25" alias for
// the fine-particulate reading; DecodeRecord renames it before validation.
const (
	FieldPM25 = "PM2.5"
	FieldPM10 = "PM10"
	FieldNH3  = "NH3"
	FieldCO   = "CO"
	FieldTemp = "temp"
	FieldHum  = "hum"

	firmwarePM25Alias = "PM25"
)

// requiredFeatures is the model's feature order. The artifact the prediction
// service loads was trained against exactly this sequence; the startup
// consistency check compares against it. Fixed for the process lifetime.
var requiredFeatures = []string{FieldPM25, FieldPM10, FieldNH3, FieldCO}

// RequiredFeatures returns the ordered feature set. Callers get a copy; the
// underlying order never changes at runtime.
func RequiredFeatures() []string {
	out := make([]string, len(requiredFeatures))
	copy(out, requiredFeatures)
	return out
}

// Range is a per-field inclusive [Min, Max] plausibility bound.
type Range struct {
	Min float64
	Max float64
}

// DefaultRanges is the validation table for both required features and the
// optional display fields. It is the sole source of truth for bounds.
func DefaultRanges() map[string]Range {
	return map[string]Range{
		FieldPM25: {Min: 0, Max: 1000},
		FieldPM10: {Min: 0, Max: 1000},
		FieldCO:   {Min: 0, Max: 1000},
		FieldNH3:  {Min: 0, Max: 500},
		FieldTemp: {Min: -40, Max: 85}, // optional display field
		FieldHum:  {Min: 0, Max: 100},  // optional display field
	}
}

func isRequired(field string) bool {
	for _, f := range requiredFeatures {
		if f == field {
			return true
		}
	}
	return false
}
