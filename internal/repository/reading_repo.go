package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aqi_backend/internal/aqi"
	"aqi_backend/internal/models"

	"github.com/google/uuid"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

// sqliteTimestamp is the TIMESTAMP column format.
const sqliteTimestamp = "2006-01-02 15:04:05"

// Append inserts a reading. If ID or TakenAt are empty, they're set.
func (r *ReadingSQLite) Append(ctx context.Context, e models.ReadingEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.TakenAt.IsZero() {
		e.TakenAt = time.Now().UTC()
	} else {
		e.TakenAt = e.TakenAt.UTC()
	}

	sensorJSON, err := json.Marshal(e.Sensor)
	if err != nil {
		return fmt.Errorf("marshal sensor data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO readings (id, taken_at, aqi, status, sensor)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.ID,
		e.TakenAt.Format(sqliteTimestamp),
		e.AQI,
		string(e.Status),
		string(sensorJSON),
	)

	return err
}

// List returns readings filtered by [from, to] (inclusive) and/or status,
// newest first. A positive limit caps the result.
func (r *ReadingSQLite) List(ctx context.Context, from, to time.Time, status string, limit int) ([]models.ReadingEvent, error) {
	var (
		conds []string
		args  []any
	)

	// Bind bounds in the stored column format; binding a raw time.Time would
	// compare a differently shaped string and lose the inclusive edges.
	if !from.IsZero() {
		conds = append(conds, "taken_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimestamp))
	}
	if !to.IsZero() {
		conds = append(conds, "taken_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimestamp))
	}
	if status = strings.TrimSpace(status); status != "" {
		// Status labels are mixed case ("Unhealthy for Sensitive Groups"),
		// so the filter must not care how the caller spells them.
		conds = append(conds, "status = ? COLLATE NOCASE")
		args = append(args, status)
	}

	q := `SELECT id, taken_at, aqi, status, sensor FROM readings`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY taken_at DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ReadingEvent, 0, 64)
	for rows.Next() {
		ev, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (models.ReadingEvent, error) {
	var (
		ev        models.ReadingEvent
		status    string
		sensorStr sql.NullString
	)
	if err := row.Scan(&ev.ID, &ev.TakenAt, &ev.AQI, &status, &sensorStr); err != nil {
		return models.ReadingEvent{}, err
	}
	ev.TakenAt = ev.TakenAt.UTC()
	ev.Status = aqi.Status(status)

	if sensorStr.Valid && sensorStr.String != "" {
		var rec models.SensorRecord
		if err := json.Unmarshal([]byte(sensorStr.String), &rec); err != nil {
			return models.ReadingEvent{}, fmt.Errorf("unmarshal sensor data for reading %s: %w", ev.ID, err)
		}
		ev.Sensor = rec
	}
	return ev, nil
}
