package models

import "aqi_backend/internal/aqi"

// SensorRecord is one decoded board reading: field name to numeric value.
// Keys are unique and carry no ordering significance. A record lives for a
// single request and is never persisted or merged with earlier readings.
type SensorRecord map[string]float64

// Clone returns an independent copy of the record.
func (r SensorRecord) Clone() SensorRecord {
	if r == nil {
		return nil
	}
	out := make(SensorRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// PredictionResult is the successful outcome of one prediction request.
type PredictionResult struct {
	AQI        float64      `json:"aqi"` // rounded to 2 decimal places
	Status     aqi.Status   `json:"status"`
	SensorData SensorRecord `json:"sensor_data"` // required features + temp/hum when present
}

// HealthStatus reports the service's readiness to serve predictions.
type HealthStatus struct {
	SerialConnected  bool     `json:"serial_connected"`
	ModelLoaded      bool     `json:"model_loaded"`
	RequiredFeatures []string `json:"required_features"`
}
