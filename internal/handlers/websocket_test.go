package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"aqi_backend/internal/aqi"
	"aqi_backend/internal/models"
	"aqi_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type wsTestEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialTestWS(t *testing.T, s *service.Service, rawQuery string) *websocket.Conn {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = rawQuery

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocket_ReadingStream_InitialAndPeriodic(t *testing.T) {
	// Each tick drives one pipeline attempt.
	pred := &mockPrediction{result: models.PredictionResult{
		AQI:    61.4,
		Status: aqi.StatusModerate,
		SensorData: models.SensorRecord{
			"PM2.5": 12.5, "PM10": 30.1, "NH3": 4.2, "CO": 0.7, "temp": 24.3,
		},
	}}
	s := &service.Service{Prediction: pred}

	conn := dialTestWS(t, s, "interval_ms=20") // fast ticks for the test

	// Read initial reading
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "reading" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var res models.PredictionResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("unmarshal reading: %v", err)
	}
	if res.AQI != 61.4 || res.Status != aqi.StatusModerate {
		t.Fatalf("unexpected reading: %+v", res)
	}
	if res.SensorData["PM2.5"] != 12.5 {
		t.Fatalf("sensor echo missing: %+v", res.SensorData)
	}

	// Read a subsequent tick
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	env = wsTestEnvelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != "reading" {
		t.Fatalf("expected type=reading, got %+v", env)
	}
	if pred.sampleCalls < 2 {
		t.Fatalf("expected one pipeline attempt per frame, got %d", pred.sampleCalls)
	}
}

func TestWebSocket_PipelineFailure_StreamsErrorEnvelopes(t *testing.T) {
	pred := &mockPrediction{err: fmt.Errorf("%w: line wait exceeded", service.ErrSensorRead)}
	s := &service.Service{Prediction: pred}

	conn := dialTestWS(t, s, "interval_ms=20")

	// A failing pipeline must not close the stream; each tick carries an
	// error envelope instead.
	for i := 0; i < 2; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		var env wsTestEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if env.Type != "error" {
			t.Fatalf("expected type=error, got %+v", env)
		}
		if env.Error != "failed to read sensor data" {
			t.Fatalf("unexpected error message: %q", env.Error)
		}
	}
}
