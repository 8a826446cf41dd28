package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/chepyr/go-task-manager/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTasksDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every new connection to :memory: is a fresh database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLBackend_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(setupTasksDB(t))
	require.NoError(t, b.EnsureSchema(ctx))

	require.NoError(t, b.Save(ctx, sampleRecords()))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestSQLBackend_EnsureSchemaIdempotent(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(setupTasksDB(t))
	require.NoError(t, b.EnsureSchema(ctx))
	require.NoError(t, b.EnsureSchema(ctx))
}

func TestSQLBackend_LoadEmpty(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(setupTasksDB(t))
	require.NoError(t, b.EnsureSchema(ctx))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLBackend_SaveRewritesInOrder(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(setupTasksDB(t))
	require.NoError(t, b.EnsureSchema(ctx))

	records := sampleRecords()
	require.NoError(t, b.Save(ctx, records))

	reversed := []models.Record{records[1], records[0]}
	require.NoError(t, b.Save(ctx, reversed))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, reversed, got)

	require.NoError(t, b.Save(ctx, nil))
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLBackend_MissingTable(t *testing.T) {
	ctx := context.Background()
	b := NewSQLBackend(setupTasksDB(t))

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, models.ErrFileOperation)

	err = b.Save(ctx, sampleRecords())
	assert.ErrorIs(t, err, models.ErrFileOperation)
}

func TestSQLBackend_FailedSaveKeepsPreviousRows(t *testing.T) {
	ctx := context.Background()
	dbx := setupTasksDB(t)
	b := NewSQLBackend(dbx)
	require.NoError(t, b.EnsureSchema(ctx))
	require.NoError(t, b.Save(ctx, sampleRecords()))

	// the trigger aborts the third insert, after the DELETE already ran
	_, err := dbx.Exec(`CREATE TRIGGER reject_bad BEFORE INSERT ON tasks
	 WHEN NEW.description = 'boom' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	bad := append(sampleRecords(), models.Record{
		ID: "x", Type: models.TaskTypeBasic, Description: "boom",
		Priority: models.TaskPriorityLow, Status: models.TaskStatusPending, CreatedAt: "2025-01-01T00:00:00Z",
	})
	err = b.Save(ctx, bad)
	assert.ErrorIs(t, err, models.ErrFileOperation)

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestConnect_SQLite(t *testing.T) {
	dbx, err := Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	defer dbx.Close()
	assert.NoError(t, dbx.Ping())
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect("nope", "")
	assert.Error(t, err)
}
