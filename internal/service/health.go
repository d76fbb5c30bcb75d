package service

import (
	"context"

	"aqi_backend/internal/ingest"
	"aqi_backend/internal/models"
)

// HealthService reports the two degradation flags plus the feature order the
// pipeline feeds the model. The endpoint always answers 200; the flags say
// whether predictions can currently work.
type HealthService struct {
	source LineSource
	pred   *PredictionService
}

func NewHealthService(source LineSource, pred *PredictionService) *HealthService {
	return &HealthService{source: source, pred: pred}
}

func (s *HealthService) Status(_ context.Context) models.HealthStatus {
	connected := false
	if s.source != nil {
		connected = s.source.Connected()
	}
	loaded := s.pred != nil && s.pred.ModelLoaded()

	return models.HealthStatus{
		SerialConnected:  connected,
		ModelLoaded:      loaded,
		RequiredFeatures: ingest.RequiredFeatures(),
	}
}
