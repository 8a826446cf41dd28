package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chepyr/go-task-manager/internal/models"
	"github.com/chepyr/go-task-manager/internal/store"
	"github.com/rs/zerolog"
)

// Runner executes commands against a loaded TaskStore. Task-domain errors
// are printed and turned into ExitTaskError; they never abort the menu loop.
type Runner struct {
	Store *store.TaskStore
	In    io.Reader
	Out   io.Writer
	Log   zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) Run(ctx context.Context, command string, args []string) int {
	var err error
	switch command {
	case CommandMenu, "":
		return r.menu(ctx)
	case CommandAdd:
		err = r.add(ctx, args)
	case CommandAddTimed:
		err = r.addTimed(ctx, args)
	case CommandComplete:
		err = r.complete(ctx, args)
	case CommandList:
		err = r.list(args)
	case CommandOverdue:
		err = r.overdue(args)
	default:
		err = invalidInvocationf("unknown command %q", command)
	}
	return r.report(err)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) report(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if kind := models.KindOf(err); kind != 0 {
		fmt.Fprintf(r.Out, "Error: %v\n", err)
		r.Log.Warn().Err(err).Stringer("kind", kind).Msg("task operation failed")
		return ExitTaskError
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		fmt.Fprintln(r.Out, invErr.Message)
		return ExitCode(err)
	}
	r.Log.Error().Err(err).Msg("unexpected error")
	fmt.Fprintf(r.Out, "Error: %v\n", err)
	return ExitInternalError
}

func newCommandFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (r *Runner) add(ctx context.Context, args []string) error {
	fs := newCommandFlags(CommandAdd)
	priority := fs.String("priority", string(models.TaskPriorityMedium), "low|medium|high")
	if err := fs.Parse(args); err != nil {
		return invalidInvocationf("add: %v", err)
	}

	p, err := models.ParsePriority(*priority)
	if err != nil {
		return err
	}
	task, err := models.NewBasicTask(strings.Join(fs.Args(), " "), p)
	if err != nil {
		return err
	}
	if err := r.Store.Add(ctx, task); err != nil {
		return err
	}
	r.Log.Info().Str("id", task.ID().String()).Str("type", string(task.Type())).Msg("task added")
	fmt.Fprintf(r.Out, "Task added: %s\n", task.Description())
	return nil
}

func (r *Runner) addTimed(ctx context.Context, args []string) error {
	fs := newCommandFlags(CommandAddTimed)
	priority := fs.String("priority", string(models.TaskPriorityMedium), "low|medium|high")
	deadline := fs.String("deadline", "", "deadline as YYYY-MM-DD HH:MM")
	if err := fs.Parse(args); err != nil {
		return invalidInvocationf("add-timed: %v", err)
	}
	if strings.TrimSpace(*deadline) == "" {
		return invalidInvocationf("add-timed: -deadline is required")
	}

	due, err := parseDeadline(*deadline)
	if err != nil {
		return err
	}
	p, err := models.ParsePriority(*priority)
	if err != nil {
		return err
	}
	task, err := models.NewTimedTask(strings.Join(fs.Args(), " "), p, due)
	if err != nil {
		return err
	}
	if err := r.Store.Add(ctx, task); err != nil {
		return err
	}
	r.Log.Info().Str("id", task.ID().String()).Str("type", string(task.Type())).Time("deadline", due).Msg("task added")
	fmt.Fprintf(r.Out, "Task added: %s\n", task.Description())
	return nil
}

func (r *Runner) complete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return invalidInvocationf("complete: expected exactly one task number")
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n < 1 {
		return invalidInvocationf("complete: task number must be a positive integer, got %q", args[0])
	}
	return r.markComplete(ctx, n)
}

func (r *Runner) markComplete(ctx context.Context, number int) error {
	task, err := r.Store.MarkComplete(ctx, number-1)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError(fmt.Sprintf("invalid task number %d", number))
		}
		return err
	}
	r.Log.Info().Str("id", task.ID().String()).Msg("task completed")
	fmt.Fprintf(r.Out, "Task marked as complete: %s\n", task.Description())
	return nil
}

func (r *Runner) list(args []string) error {
	fs := newCommandFlags(CommandList)
	status := fs.String("status", "", "pending|completed (default all)")
	if err := fs.Parse(args); err != nil {
		return invalidInvocationf("list: %v", err)
	}
	s, err := models.ParseStatus(*status)
	if err != nil {
		return err
	}
	r.printTasks(s)
	return nil
}

func (r *Runner) overdue(args []string) error {
	if len(args) != 0 {
		return invalidInvocationf("overdue: unexpected arguments %q", strings.Join(args, " "))
	}
	tasks := r.Store.Overdue()
	if len(tasks) == 0 {
		fmt.Fprintln(r.Out, "No overdue tasks.")
		return nil
	}
	fmt.Fprintln(r.Out, "Overdue tasks:")
	for _, t := range tasks {
		fmt.Fprintf(r.Out, "- %s\n", describeTask(t))
	}
	return nil
}

// printTasks numbers tasks by their position in the store so the numbers
// can be passed to "complete" even when a status filter hides some tasks.
func (r *Runner) printTasks(status models.TaskStatus) {
	at := r.now()
	shown := 0
	for i, t := range r.Store.List("") {
		if status != "" && t.Status() != status {
			continue
		}
		if shown == 0 {
			fmt.Fprintln(r.Out, "Tasks:")
		}
		shown++
		fmt.Fprintf(r.Out, "%d. %s\n", i+1, describeTask(t))
		if timed, ok := t.(*models.TimedTask); ok && timed.IsOverdueAt(at) {
			fmt.Fprintln(r.Out, "   ! This task is overdue")
		}
	}
	if shown == 0 {
		fmt.Fprintln(r.Out, "No tasks found!")
	}
}

func describeTask(t models.Task) string {
	var b strings.Builder
	fmt.Fprint(&b, t)
	fmt.Fprintf(&b, " (Created: %s", t.CreatedAt().Format(models.DisplayLayout))
	if at, ok := t.CompletedAt(); ok {
		fmt.Fprintf(&b, ", Completed: %s", at.Format(models.DisplayLayout))
	}
	b.WriteString(")")
	return b.String()
}

func parseDeadline(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DisplayLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, models.NewValidationError("invalid date format, use YYYY-MM-DD HH:MM", err)
	}
	return t, nil
}
