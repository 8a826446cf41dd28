package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// ParseStatus accepts a status filter value. The empty string means "any".
func ParseStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" || s.Valid() {
		return s, nil
	}
	return "", NewValidationError(fmt.Sprintf("status must be pending or completed, got %q", raw), nil)
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// ParsePriority normalizes user input; it does not fall back to a default.
func ParsePriority(raw string) (TaskPriority, error) {
	p := TaskPriority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", errInvalidPriority
	}
	return p, nil
}

// TaskType is the record discriminator.
type TaskType string

const (
	TaskTypeBasic TaskType = "Basic"
	TaskTypeTimed TaskType = "Timed"
)

var (
	errEmptyDescription = NewValidationError("task description cannot be empty", nil)
	errInvalidPriority  = NewValidationError("priority must be low, medium, or high", nil)
	errDeadlineInPast   = NewValidationError("deadline cannot be in the past", nil)
)

// now is swapped in tests.
var now = time.Now

// Task is implemented only by *BasicTask and *TimedTask.
type Task interface {
	ID() uuid.UUID
	Type() TaskType
	Description() string
	Priority() TaskPriority
	Status() TaskStatus
	CreatedAt() time.Time
	CompletedAt() (time.Time, bool)

	MarkComplete()
	Completion() Completion
	RestoreCompletion(c Completion)

	ToRecord() Record
	Clone() Task

	sealed()
}

// Completion holds the fields MarkComplete changes.
type Completion struct {
	Status      TaskStatus
	CompletedAt *time.Time
}

type baseTask struct {
	id          uuid.UUID
	description string
	priority    TaskPriority
	status      TaskStatus
	createdAt   time.Time
	completedAt *time.Time
}

func newBaseTask(description string, priority TaskPriority, createdAt time.Time) (baseTask, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return baseTask{}, errEmptyDescription
	}
	if !priority.Valid() {
		return baseTask{}, errInvalidPriority
	}
	return baseTask{
		id:          uuid.New(),
		description: description,
		priority:    priority,
		status:      TaskStatusPending,
		createdAt:   createdAt,
	}, nil
}

func (b *baseTask) ID() uuid.UUID          { return b.id }
func (b *baseTask) Description() string    { return b.description }
func (b *baseTask) Priority() TaskPriority { return b.priority }
func (b *baseTask) Status() TaskStatus     { return b.status }
func (b *baseTask) CreatedAt() time.Time   { return b.createdAt }
func (b *baseTask) sealed()                {}

func (b *baseTask) CompletedAt() (time.Time, bool) {
	if b.completedAt == nil {
		return time.Time{}, false
	}
	return *b.completedAt, true
}

// MarkComplete is idempotent: a completed task keeps its first completion time.
func (b *baseTask) MarkComplete() {
	if b.status == TaskStatusCompleted {
		return
	}
	at := now()
	b.status = TaskStatusCompleted
	b.completedAt = &at
}

func (b *baseTask) Completion() Completion {
	c := Completion{Status: b.status}
	if b.completedAt != nil {
		at := *b.completedAt
		c.CompletedAt = &at
	}
	return c
}

func (b *baseTask) RestoreCompletion(c Completion) {
	b.status = c.Status
	b.completedAt = nil
	if c.CompletedAt != nil {
		at := *c.CompletedAt
		b.completedAt = &at
	}
}

func (b *baseTask) record(t TaskType) Record {
	r := Record{
		ID:          b.id.String(),
		Type:        t,
		Description: b.description,
		Priority:    b.priority,
		Status:      b.status,
		CreatedAt:   FormatTime(b.createdAt),
	}
	if b.completedAt != nil {
		s := FormatTime(*b.completedAt)
		r.CompletedAt = &s
	}
	return r
}

func (b baseTask) clone() baseTask {
	c := b
	if b.completedAt != nil {
		at := *b.completedAt
		c.completedAt = &at
	}
	return c
}

type BasicTask struct {
	baseTask
}

// NewBasicTask validates its input and stamps the creation time.
func NewBasicTask(description string, priority TaskPriority) (*BasicTask, error) {
	base, err := newBaseTask(description, priority, now())
	if err != nil {
		return nil, err
	}
	return &BasicTask{baseTask: base}, nil
}

func (t *BasicTask) Type() TaskType   { return TaskTypeBasic }
func (t *BasicTask) ToRecord() Record { return t.record(TaskTypeBasic) }
func (t *BasicTask) Clone() Task      { return &BasicTask{baseTask: t.baseTask.clone()} }

func (t *BasicTask) String() string {
	return fmt.Sprintf("Basic Task: %s (Priority: %s, Status: %s)", t.description, t.priority, t.status)
}

type TimedTask struct {
	baseTask
	deadline time.Time
}

// NewTimedTask rejects a deadline earlier than the creation time.
func NewTimedTask(description string, priority TaskPriority, deadline time.Time) (*TimedTask, error) {
	createdAt := now()
	base, err := newBaseTask(description, priority, createdAt)
	if err != nil {
		return nil, err
	}
	if deadline.Before(createdAt) {
		return nil, errDeadlineInPast
	}
	return &TimedTask{baseTask: base, deadline: deadline}, nil
}

func (t *TimedTask) Type() TaskType      { return TaskTypeTimed }
func (t *TimedTask) Deadline() time.Time { return t.deadline }
func (t *TimedTask) Clone() Task         { return &TimedTask{baseTask: t.baseTask.clone(), deadline: t.deadline} }

func (t *TimedTask) ToRecord() Record {
	r := t.record(TaskTypeTimed)
	d := FormatTime(t.deadline)
	r.Deadline = &d
	return r
}

// IsOverdue is computed on every call and never stored.
func (t *TimedTask) IsOverdue() bool {
	return t.IsOverdueAt(now())
}

func (t *TimedTask) IsOverdueAt(at time.Time) bool {
	return at.After(t.deadline) && t.status != TaskStatusCompleted
}

func (t *TimedTask) String() string {
	return fmt.Sprintf("Timed Task: %s (Priority: %s, Status: %s) (Deadline: %s)",
		t.description, t.priority, t.status, t.deadline.Format(DisplayLayout))
}

// FromRecord rebuilds a task from its stored form and re-checks every
// construction rule. Field problems are reported together.
func FromRecord(r Record) (Task, error) {
	switch r.Type {
	case TaskTypeBasic, TaskTypeTimed:
	case "":
		return nil, NewValidationError("invalid task record", errors.New("type is required"))
	default:
		return nil, NewValidationError(fmt.Sprintf("unknown task type %q", r.Type), nil)
	}

	var errs []error
	base := baseTask{
		description: strings.TrimSpace(r.Description),
		priority:    r.Priority,
		status:      r.Status,
	}

	if r.ID == "" {
		base.id = uuid.New()
	} else if id, err := uuid.Parse(r.ID); err != nil {
		errs = append(errs, fmt.Errorf("invalid id %q: %w", r.ID, err))
	} else {
		base.id = id
	}
	if base.description == "" {
		errs = append(errs, errors.New("description is required"))
	}
	switch {
	case r.Priority == "":
		errs = append(errs, errors.New("priority is required"))
	case !r.Priority.Valid():
		errs = append(errs, fmt.Errorf("invalid priority %q", r.Priority))
	}
	switch {
	case r.Status == "":
		errs = append(errs, errors.New("status is required"))
	case !r.Status.Valid():
		errs = append(errs, fmt.Errorf("invalid status %q", r.Status))
	}

	createdAt, err := parseRequiredTime("created_at", r.CreatedAt)
	if err != nil {
		errs = append(errs, err)
	}
	base.createdAt = createdAt

	if r.CompletedAt != nil {
		at, err := ParseTime(*r.CompletedAt)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid completed_at: %w", err))
		case r.Status == TaskStatusPending:
			errs = append(errs, errors.New("completed_at is set on a pending task"))
		default:
			base.completedAt = &at
		}
	}

	var task Task
	if r.Type == TaskTypeTimed {
		var deadline time.Time
		if r.Deadline == nil {
			errs = append(errs, errors.New("deadline is required for a timed task"))
		} else if deadline, err = parseRequiredTime("deadline", *r.Deadline); err != nil {
			errs = append(errs, err)
		} else if !createdAt.IsZero() && deadline.Before(createdAt) {
			errs = append(errs, errors.New("deadline is earlier than created_at"))
		}
		task = &TimedTask{baseTask: base, deadline: deadline}
	} else {
		task = &BasicTask{baseTask: base}
	}

	if len(errs) > 0 {
		return nil, NewValidationError("invalid task record", errors.Join(errs...))
	}
	return task, nil
}

func parseRequiredTime(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}
