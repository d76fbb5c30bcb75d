// Package metrics exposes Prometheus instrumentation for the prediction
// pipeline. A nil *Pipeline is a valid no-op receiver, so callers never have
// to guard their observation calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure stages, used as the label on the failure counter.
const (
	StageSerial     = "serial"
	StageDecode     = "decode"
	StageValidation = "validation"
	StageModel      = "model"
	StagePredict    = "predict"
	StageStore      = "store"
)

type Pipeline struct {
	predictionsTotal prometheus.Counter
	failuresTotal    *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	lastAQI          prometheus.Gauge
	serialConnected  prometheus.Gauge
}

func NewPipeline() *Pipeline {
	m := &Pipeline{
		predictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aqi_predictions_total",
			Help: "Total count of successful AQI predictions served.",
		}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aqi_pipeline_failures_total",
			Help: "Total pipeline failures by stage.",
		}, []string{"stage"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aqi_pipeline_duration_seconds",
			Help:    "Histogram of read-to-prediction pipeline durations.",
			Buckets: prometheus.DefBuckets,
		}),
		lastAQI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqi_last_value",
			Help: "Most recent predicted AQI value.",
		}),
		serialConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aqi_serial_connected",
			Help: "Whether the sensor serial link is open (1) or not (0).",
		}),
	}

	prometheus.MustRegister(
		m.predictionsTotal,
		m.failuresTotal,
		m.pipelineDuration,
		m.lastAQI,
		m.serialConnected,
	)

	return m
}

func (m *Pipeline) PredictionServed(aqi float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.predictionsTotal.Inc()
	m.pipelineDuration.Observe(duration.Seconds())
	m.lastAQI.Set(aqi)
}

func (m *Pipeline) PipelineFailure(stage string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(stage).Inc()
}

func (m *Pipeline) SetSerialConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.serialConnected.Set(1)
	} else {
		m.serialConnected.Set(0)
	}
}

// Handler serves the default registry all Pipeline collectors register on.
func Handler() http.Handler {
	return promhttp.Handler()
}
