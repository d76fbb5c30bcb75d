package repository

import (
	"context"
	"database/sql"
	"time"

	"aqi_backend/internal/models"
	"aqi_backend/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// ReadingRepo is the append-only prediction audit log.
type ReadingRepo interface {
	Append(ctx context.Context, e models.ReadingEvent) error
	List(ctx context.Context, from, to time.Time, status string, limit int) ([]models.ReadingEvent, error)
}

// SnapshotRepo holds the single most recent reading (row id always 1).
type SnapshotRepo interface {
	Save(ctx context.Context, e models.ReadingEvent) error
	Load(ctx context.Context) (models.ReadingEvent, error)
}

type Repository struct {
	Readings ReadingRepo
	Snapshot SnapshotRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Readings: NewReadingSQLite(db),
		Snapshot: NewSnapshotSQLite(db),
		Auth:     NewUserRepository(db),
	}
}

// InitDB opens the SQLite file and applies the schema. Thin delegation so
// callers outside the package do not import the db subpackage directly.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
