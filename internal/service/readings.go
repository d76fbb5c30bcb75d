package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"aqi_backend/internal/models"
	"aqi_backend/internal/repository"
)

// ErrNoReadings reports that no prediction has been stored yet.
var ErrNoReadings = errors.New("no readings recorded yet")

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// maxListLimit caps a single history page.
const maxListLimit = 1000

type ReadingsService struct {
	snapshot repository.SnapshotRepo
	readings repository.ReadingRepo
}

func NewReadingsService(snapshot repository.SnapshotRepo, readings repository.ReadingRepo) *ReadingsService {
	return &ReadingsService{snapshot: snapshot, readings: readings}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f ReadingFilter) (time.Time, time.Time, string, int, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", 0, errInvalidTimeRange
	}

	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	return from, to, strings.TrimSpace(f.Status), limit, nil
}

func (s *ReadingsService) List(ctx context.Context, f ReadingFilter) ([]models.ReadingEvent, error) {
	from, to, status, limit, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.readings.List(ctx, from, to, status, limit)
}

// Latest returns the most recent stored reading, ErrNoReadings when the
// snapshot row has never been written.
func (s *ReadingsService) Latest(ctx context.Context) (models.ReadingEvent, error) {
	ev, err := s.snapshot.Load(ctx)
	if err != nil {
		return models.ReadingEvent{}, err
	}
	if ev.ID == "" {
		return models.ReadingEvent{}, ErrNoReadings
	}
	return ev, nil
}
