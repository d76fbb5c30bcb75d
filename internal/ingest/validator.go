package ingest

import (
	"fmt"
	"math"
	"sort"

	"aqi_backend/internal/models"
)

// FieldViolation describes the first field that failed range validation.
// Reason distinguishes a missing required feature from an implausible value.
type FieldViolation struct {
	Field  string
	Value  float64 // undefined when Reason is ReasonMissing
	Min    float64
	Max    float64
	Reason ViolationReason
}

type ViolationReason string

const (
	ReasonMissing    ViolationReason = "missing"
	ReasonOutOfRange ViolationReason = "out_of_range"
)

func (v *FieldViolation) Error() string {
	if v.Reason == ReasonMissing {
		return fmt.Sprintf("field %s: required but missing", v.Field)
	}
	return fmt.Sprintf("field %s: value %g outside [%g, %g]", v.Field, v.Value, v.Min, v.Max)
}

// ValidateRecord checks rec against the bounds table. Required features must
// be present and in range; bounded optional fields are checked only when
// present; fields without an entry in ranges pass through untouched. The
// first violation in lexicographic field order is returned, nil when the
// record is valid.
func ValidateRecord(rec models.SensorRecord, ranges map[string]Range) *FieldViolation {
	fields := make([]string, 0, len(ranges))
	for f := range ranges {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		r := ranges[f]
		v, ok := rec[f]
		if !ok {
			if isRequired(f) {
				return &FieldViolation{Field: f, Min: r.Min, Max: r.Max, Reason: ReasonMissing}
			}
			continue
		}
		if math.IsNaN(v) || v < r.Min || v > r.Max {
			return &FieldViolation{Field: f, Value: v, Min: r.Min, Max: r.Max, Reason: ReasonOutOfRange}
		}
	}
	return nil
}
