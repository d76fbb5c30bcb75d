package service

import (
	"context"

	"aqi_backend/internal/logger"
	"aqi_backend/internal/metrics"
	"aqi_backend/internal/models"
	"aqi_backend/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Prediction runs one full sensor-to-AQI pass per call: read a line, decode,
// validate, predict, classify, persist.
type Prediction interface {
	Sample(ctx context.Context) (models.PredictionResult, error)
}

// Health exposes the degradation flags the dashboard polls.
type Health interface {
	Status(ctx context.Context) models.HealthStatus
}

// Readings exposes the stored prediction history.
type Readings interface {
	List(ctx context.Context, f ReadingFilter) ([]models.ReadingEvent, error)
	Latest(ctx context.Context) (models.ReadingEvent, error)
}

// LineSource yields one raw sensor line per call. Implemented by the serial
// reader and the hardware-free simulator.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
	Connected() bool
	Close() error
}

// Regressor evaluates the trained AQI model over an ordered feature vector.
type Regressor interface {
	FeatureNames() []string
	Predict(x []float64) (float64, error)
}

// Publisher pushes stored readings to an external broker. Optional.
type Publisher interface {
	PublishReading(ctx context.Context, e models.ReadingEvent) error
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Prediction
	Health
	Readings
	Authorization
}

// Deps carries everything NewService needs. Model, Publisher, Metrics and Log
// may be nil; the service degrades instead of failing.
type Deps struct {
	Repos     *repository.Repository
	Source    LineSource
	Model     Regressor
	Publisher Publisher
	Metrics   *metrics.Pipeline
	Log       *logger.Logger
	Auth      AuthConfig
}

// NewService wires repositories, the sensor source and the model into
// concrete services.
func NewService(d Deps) *Service {
	pred := NewPredictionService(d)
	return &Service{
		Prediction:    pred,
		Health:        NewHealthService(d.Source, pred),
		Readings:      NewReadingsService(d.Repos.Snapshot, d.Repos.Readings),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
	}
}
