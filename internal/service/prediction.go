package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"aqi_backend/internal/aqi"
	"aqi_backend/internal/ingest"
	"aqi_backend/internal/logger"
	"aqi_backend/internal/metrics"
	"aqi_backend/internal/models"
	"aqi_backend/internal/repository"

	"github.com/google/uuid"
)

// Failure classes the HTTP layer maps to responses. Everything that goes
// wrong between the port and a validated record is one sensor-read failure;
// model problems stay distinct so the operator can tell them apart.
var (
	ErrSensorRead       = errors.New("sensor read failed")
	ErrModelUnavailable = errors.New("prediction model not loaded")
	ErrPrediction       = errors.New("model prediction failed")
)

type PredictionService struct {
	source   LineSource
	model    Regressor // nil when absent or rejected; never reassigned after construction
	readings repository.ReadingRepo
	snapshot repository.SnapshotRepo
	pub      Publisher
	metrics  *metrics.Pipeline
	log      *logger.Logger
	ranges   map[string]ingest.Range
}

// NewPredictionService verifies the model artifact against the pipeline's
// feature order. On mismatch the model is discarded so every prediction
// fails with ErrModelUnavailable rather than silently feeding the model
// misordered inputs.
func NewPredictionService(d Deps) *PredictionService {
	s := &PredictionService{
		source:   d.Source,
		model:    d.Model,
		readings: d.Repos.Readings,
		snapshot: d.Repos.Snapshot,
		pub:      d.Publisher,
		metrics:  d.Metrics,
		log:      d.Log,
		ranges:   ingest.DefaultRanges(),
	}

	if s.model != nil {
		want := ingest.RequiredFeatures()
		got := s.model.FeatureNames()
		if !equalFeatureOrder(got, want) {
			if s.log != nil {
				s.log.Errorw("model_feature_order_mismatch", "artifact", got, "pipeline", want)
			}
			s.model = nil
		}
	}
	return s
}

// ModelLoaded reports whether a usable model survived the startup check.
func (s *PredictionService) ModelLoaded() bool {
	return s.model != nil
}

// Sample runs one on-demand pipeline pass. Storage and publishing are
// best-effort: a failed append must not lose the prediction the caller is
// waiting for.
func (s *PredictionService) Sample(ctx context.Context) (models.PredictionResult, error) {
	start := time.Now()

	rec, err := s.readRecord(ctx)
	if err != nil {
		return models.PredictionResult{}, err
	}

	if s.model == nil {
		s.metrics.PipelineFailure(metrics.StageModel)
		return models.PredictionResult{}, ErrModelUnavailable
	}

	vector, err := ingest.ProjectFeatures(rec)
	if err != nil {
		s.metrics.PipelineFailure(metrics.StageValidation)
		return models.PredictionResult{}, fmt.Errorf("%w: %w", ErrSensorRead, err)
	}

	raw, err := s.model.Predict(vector)
	if err != nil {
		s.metrics.PipelineFailure(metrics.StagePredict)
		if s.log != nil {
			s.log.Errorw("model_predict_failed", "err", err)
		}
		return models.PredictionResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}

	// Classification sees the raw value; the response carries the rounded one.
	status := aqi.Classify(raw)
	rounded := round2(raw)
	echo := echoSensorData(rec)

	event := models.ReadingEvent{
		ID:      uuid.NewString(),
		TakenAt: start.UTC(),
		AQI:     rounded,
		Status:  status,
		Sensor:  echo,
	}
	s.store(ctx, event)
	s.publish(ctx, event)

	s.metrics.PredictionServed(rounded, time.Since(start))
	return models.PredictionResult{
		AQI:        rounded,
		Status:     status,
		SensorData: echo,
	}, nil
}

// readRecord turns one serial line into a validated record. Each failure is
// logged and counted under its stage, then collapsed into ErrSensorRead.
func (s *PredictionService) readRecord(ctx context.Context) (models.SensorRecord, error) {
	line, err := s.source.ReadLine(ctx)
	if err != nil {
		s.metrics.PipelineFailure(metrics.StageSerial)
		if s.log != nil {
			s.log.Warnw("sensor_read_failed", "err", err)
		}
		return nil, fmt.Errorf("%w: %w", ErrSensorRead, err)
	}

	rec, err := ingest.DecodeRecord(line)
	if err != nil {
		s.metrics.PipelineFailure(metrics.StageDecode)
		if s.log != nil {
			s.log.Warnw("sensor_decode_failed", "err", err, "line", line)
		}
		return nil, fmt.Errorf("%w: %w", ErrSensorRead, err)
	}

	if v := ingest.ValidateRecord(rec, s.ranges); v != nil {
		s.metrics.PipelineFailure(metrics.StageValidation)
		if s.log != nil {
			s.log.Warnw("sensor_validation_failed", "field", v.Field, "reason", string(v.Reason), "err", v)
		}
		return nil, fmt.Errorf("%w: %w", ErrSensorRead, v)
	}
	return rec, nil
}

func (s *PredictionService) store(ctx context.Context, event models.ReadingEvent) {
	if s.snapshot != nil {
		if err := s.snapshot.Save(ctx, event); err != nil {
			s.metrics.PipelineFailure(metrics.StageStore)
			if s.log != nil {
				s.log.Errorw("snapshot_save_failed", "err", err, "reading_id", event.ID)
			}
		}
	}
	if s.readings != nil {
		if err := s.readings.Append(ctx, event); err != nil {
			s.metrics.PipelineFailure(metrics.StageStore)
			if s.log != nil {
				s.log.Errorw("reading_append_failed", "err", err, "reading_id", event.ID)
			}
		}
	}
}

func (s *PredictionService) publish(ctx context.Context, event models.ReadingEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishReading(ctx, event); err != nil {
		if s.log != nil {
			s.log.Warnw("reading_publish_failed", "err", err, "reading_id", event.ID)
		}
	}
}

// echoSensorData keeps the four model features plus the optional comfort
// fields; anything else the firmware sends stays internal.
func echoSensorData(rec models.SensorRecord) models.SensorRecord {
	out := make(models.SensorRecord, 6)
	for _, f := range ingest.RequiredFeatures() {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	for _, f := range []string{ingest.FieldTemp, ingest.FieldHum} {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func equalFeatureOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
