package db

import (
	"context"
	"database/sql"

	"github.com/chepyr/go-task-manager/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS tasks (
  position INTEGER PRIMARY KEY,
  id TEXT NOT NULL,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  priority TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TEXT NOT NULL,
  completed_at TEXT,
  deadline TEXT
)`

// SQLBackend keeps the task list in a "tasks" table, one row per position.
// The SQL is shared by the sqlite3 and postgres drivers.
type SQLBackend struct {
	db *sql.DB
}

func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return models.NewFileOperationError("create tasks table", err)
	}
	return nil
}

func (b *SQLBackend) Load(ctx context.Context) ([]models.Record, error) {
	query := `SELECT id, type, description, priority, status, created_at, completed_at, deadline
	 FROM tasks ORDER BY position`
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, models.NewFileOperationError("query tasks", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		var completedAt, deadline sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Description, &r.Priority, &r.Status,
			&r.CreatedAt, &completedAt, &deadline); err != nil {
			return nil, models.NewFileOperationError("scan task row", err)
		}
		if completedAt.Valid {
			r.CompletedAt = &completedAt.String
		}
		if deadline.Valid {
			r.Deadline = &deadline.String
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewFileOperationError("read task rows", err)
	}
	return records, nil
}

// Save rewrites the table in one transaction.
func (b *SQLBackend) Save(ctx context.Context, records []models.Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return models.NewFileOperationError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return models.NewFileOperationError("clear tasks", err)
	}

	query := `INSERT INTO tasks (position, id, type, description, priority, status, created_at, completed_at, deadline)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return models.NewFileOperationError("prepare insert", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx, i, r.ID, string(r.Type), r.Description, string(r.Priority), string(r.Status),
			r.CreatedAt, nullString(r.CompletedAt), nullString(r.Deadline))
		if err != nil {
			return models.NewFileOperationError("insert task", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.NewFileOperationError("commit tasks", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
