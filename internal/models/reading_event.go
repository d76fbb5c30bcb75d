package models

import (
	"time"

	"aqi_backend/internal/aqi"
)

// ReadingEvent is one archived prediction: the audit-log entry appended after
// every successful AQI query. It never feeds back into prediction.
type ReadingEvent struct {
	ID      string       `json:"id"`
	TakenAt time.Time    `json:"taken_at"`
	AQI     float64      `json:"aqi"`
	Status  aqi.Status   `json:"status"`
	Sensor  SensorRecord `json:"sensor_data"`
}
