package ingest

import (
	"errors"
	"testing"

	"aqi_backend/internal/models"
)

func TestDecodeRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		want    models.SensorRecord
		wantErr bool
	}{
		{
			name: "full payload with firmware alias",
			line: `{"PM25": 12.5, "PM10": 30.1, "NH3": 4.2, "CO": 0.7, "temp": 25.5, "hum": 60.2}`,
			want: models.SensorRecord{
				"PM2.5": 12.5, "PM10": 30.1, "NH3": 4.2, "CO": 0.7, "temp": 25.5, "hum": 60.2,
			},
		},
		{
			name: "canonical key passes through",
			line: `{"PM2.5": 8.0, "PM10": 20.0, "NH3": 1.0, "CO": 0.3}`,
			want: models.SensorRecord{"PM2.5": 8.0, "PM10": 20.0, "NH3": 1.0, "CO": 0.3},
		},
		{
			name: "alias overwrites canonical key",
			line: `{"PM2.5": 1.0, "PM25": 2.0}`,
			want: models.SensorRecord{"PM2.5": 2.0},
		},
		{
			name: "surrounding whitespace trimmed",
			line: "  {\"CO\": 0.5}\r\n",
			want: models.SensorRecord{"CO": 0.5},
		},
		{name: "empty line", line: "", wantErr: true},
		{name: "whitespace only", line: " \r\n", wantErr: true},
		{name: "truncated object", line: `{"PM25": 12.`, wantErr: true},
		{name: "json null", line: `null`, wantErr: true},
		{name: "json array", line: `[1, 2, 3]`, wantErr: true},
		{name: "non-numeric value", line: `{"PM25": "high"}`, wantErr: true},
		{name: "plain text", line: `sensor warming up`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeRecord(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeRecord(%q) expected error, got %v", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeRecord(%q) unexpected error: %v", tt.line, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DecodeRecord(%q) = %v, want %v", tt.line, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("DecodeRecord(%q)[%s] = %v, want %v", tt.line, k, got[k], v)
				}
			}
		})
	}
}

func TestDecodeRecordAliasRemoved(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord(`{"PM25": 3.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rec["PM25"]; ok {
		t.Error("firmware alias key should be removed after rename")
	}
	if rec[FieldPM25] != 3.5 {
		t.Errorf("canonical key = %v, want 3.5", rec[FieldPM25])
	}
}

func TestDecodeRecordMalformedSentinel(t *testing.T) {
	t.Parallel()

	_, err := DecodeRecord(`null`)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("error = %v, want ErrMalformedPayload", err)
	}
}
