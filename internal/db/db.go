package db

import (
	"context"
	"database/sql"

	"github.com/chepyr/go-task-manager/internal/models"
)

// Backend persists the whole ordered task list. Save replaces everything
// that was stored before, or fails and leaves the prior contents in place.
type Backend interface {
	Load(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, records []models.Record) error
}

func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
