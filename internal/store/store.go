package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/chepyr/go-task-manager/internal/db"
	"github.com/chepyr/go-task-manager/internal/models"
)

// TaskStore owns the ordered task list. Every mutation is written to the
// backend before it returns; when the write fails the in-memory change is
// undone and the backend error is returned as is.
//
// A TaskStore is not safe for concurrent use, and two stores must not share
// one backend.
type TaskStore struct {
	backend db.Backend
	tasks   []models.Task
}

func NewTaskStore(backend db.Backend) *TaskStore {
	return &TaskStore{backend: backend}
}

// Load replaces the in-memory list with the backend contents. Loading is
// strict: one invalid record fails the whole load, and on any error the
// store is left empty.
func (s *TaskStore) Load(ctx context.Context) error {
	s.tasks = nil

	records, err := s.backend.Load(ctx)
	if err != nil {
		return asFileOperationError("load tasks", err)
	}

	tasks := make([]models.Task, 0, len(records))
	for i, r := range records {
		t, err := models.FromRecord(r)
		if err != nil {
			return fmt.Errorf("load record %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	s.tasks = tasks
	return nil
}

// Add appends a copy of task and persists the list.
func (s *TaskStore) Add(ctx context.Context, task models.Task) error {
	if task == nil {
		return models.NewValidationError("task is required", nil)
	}

	s.tasks = append(s.tasks, task.Clone())
	if err := s.persist(ctx); err != nil {
		last := len(s.tasks) - 1
		s.tasks[last] = nil
		s.tasks = s.tasks[:last]
		return err
	}
	return nil
}

// MarkComplete completes the task at the zero-based index and returns a copy
// of it. An index outside the list yields a models.ErrNotFound error and
// changes nothing.
func (s *TaskStore) MarkComplete(ctx context.Context, index int) (models.Task, error) {
	if index < 0 || index >= len(s.tasks) {
		return nil, models.NewNotFoundError(fmt.Sprintf("no task at index %d", index))
	}

	task := s.tasks[index]
	prev := task.Completion()
	task.MarkComplete()
	if err := s.persist(ctx); err != nil {
		task.RestoreCompletion(prev)
		return nil, err
	}
	return task.Clone(), nil
}

// List returns copies of the tasks with the given status in insertion order.
// An empty status matches every task.
func (s *TaskStore) List(status models.TaskStatus) []models.Task {
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status == "" || t.Status() == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Overdue returns copies of the timed tasks that are past their deadline and
// not completed.
func (s *TaskStore) Overdue() []models.Task {
	var out []models.Task
	for _, t := range s.tasks {
		if timed, ok := t.(*models.TimedTask); ok && timed.IsOverdue() {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *TaskStore) Len() int { return len(s.tasks) }

func (s *TaskStore) persist(ctx context.Context) error {
	records := make([]models.Record, len(s.tasks))
	for i, t := range s.tasks {
		records[i] = t.ToRecord()
	}
	if err := s.backend.Save(ctx, records); err != nil {
		return asFileOperationError("save tasks", err)
	}
	return nil
}

// asFileOperationError passes task-domain errors through untouched and files
// anything else from a backend under the file operation kind.
func asFileOperationError(message string, err error) error {
	var te *models.TaskError
	if errors.As(err, &te) {
		return err
	}
	return models.NewFileOperationError(message, err)
}
