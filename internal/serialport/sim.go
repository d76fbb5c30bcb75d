package serialport

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"sync"
	"time"
)

// ----------- Simulation constants -----------
const (
	SimPM25Base = 18.0 // µg/m³ fine particulate baseline
	SimPM10Base = 42.0 // µg/m³ coarse particulate baseline
	SimNH3Base  = 6.0  // ppm ammonia baseline
	SimCOBase   = 0.8  // ppm carbon monoxide baseline
	SimTempBase = 24.0 // °C
	SimHumBase  = 55.0 // %RH

	simPM25Step = 2.5 // max walk step per read
	simPM10Step = 4.0
	simNH3Step  = 0.8
	simCOStep   = 0.15
	simTempStep = 0.4
	simHumStep  = 1.5
)

type simChannel struct {
	value float64
	step  float64
	min   float64
	max   float64
}

func (c *simChannel) advance(rng *rand.Rand) float64 {
	c.value += (rng.Float64()*2 - 1) * c.step
	c.value = math.Min(math.Max(c.value, c.min), c.max)
	return math.Round(c.value*10) / 10
}

// SimulatedSource synthesizes plausible sensor frames for development and
// tests without hardware. Each ReadLine advances a bounded random walk per
// channel and emits one JSON line in the firmware's wire format, alias key
// included, so the full ingest path gets exercised.
type SimulatedSource struct {
	mu       sync.Mutex
	rng      *rand.Rand
	channels map[string]*simChannel
	closed   bool
}

// NewSimulatedSource seeds the walk from the current time.
func NewSimulatedSource() *SimulatedSource {
	return newSimulatedSource(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newSimulatedSource(rng *rand.Rand) *SimulatedSource {
	return &SimulatedSource{
		rng: rng,
		channels: map[string]*simChannel{
			"PM25": {value: SimPM25Base, step: simPM25Step, min: 0, max: 500},
			"PM10": {value: SimPM10Base, step: simPM10Step, min: 0, max: 600},
			"NH3":  {value: SimNH3Base, step: simNH3Step, min: 0, max: 200},
			"CO":   {value: SimCOBase, step: simCOStep, min: 0, max: 50},
			"temp": {value: SimTempBase, step: simTempStep, min: -10, max: 45},
			"hum":  {value: SimHumBase, step: simHumStep, min: 5, max: 95},
		},
	}
}

// ReadLine returns one synthesized frame.
func (s *SimulatedSource) ReadLine(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrNotConnected
	}
	if err := ctxErr(ctx); err != nil {
		return "", err
	}

	frame := make(map[string]float64, len(s.channels))
	for key, ch := range s.channels {
		frame[key] = ch.advance(s.rng)
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Connected reports whether the source is still open.
func (s *SimulatedSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close stops the source; later reads fail with ErrNotConnected.
func (s *SimulatedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
