package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aqi_backend/internal/models"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

const (
	latestReadingRowID = 1

	upsertLatestSQL = `
		INSERT INTO latest_reading (id, reading_id, taken_at, aqi, status, sensor)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reading_id=excluded.reading_id,
			taken_at=excluded.taken_at,
			aqi=excluded.aqi,
			status=excluded.status,
			sensor=excluded.sensor
	`

	selectLatestSQL = `
		SELECT reading_id, taken_at, aqi, status, sensor
		FROM latest_reading WHERE id=?
	`
)

// Save upserts the latest_reading row (id always 1).
func (r *SnapshotSQLite) Save(ctx context.Context, e models.ReadingEvent) error {
	sensorJSON, err := json.Marshal(e.Sensor)
	if err != nil {
		return fmt.Errorf("marshal sensor data: %w", err)
	}

	tsUTC := e.TakenAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertLatestSQL,
		latestReadingRowID,
		e.ID,
		tsUTC.Format(sqliteTimestamp),
		e.AQI,
		string(e.Status),
		string(sensorJSON),
	)
	return err
}

// Load fetches the single latest_reading row (id=1). A zero-value event with
// an empty ID means no reading has been stored yet.
func (r *SnapshotSQLite) Load(ctx context.Context) (models.ReadingEvent, error) {
	row := r.db.QueryRowContext(ctx, selectLatestSQL, latestReadingRowID)

	ev, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ReadingEvent{}, nil
		}
		return models.ReadingEvent{}, err
	}
	return ev, nil
}
