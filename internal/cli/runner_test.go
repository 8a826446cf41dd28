package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chepyr/go-task-manager/internal/db"
	"github.com/chepyr/go-task-manager/internal/models"
	"github.com/chepyr/go-task-manager/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	path   string
	store  *store.TaskStore
	out    *bytes.Buffer
	runner *Runner
}

func newTestEnv(t *testing.T, input string) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	backend, err := db.NewJSONFileBackend(path)
	require.NoError(t, err)
	st := store.NewTaskStore(backend)
	require.NoError(t, st.Load(context.Background()))

	out := &bytes.Buffer{}
	return &testEnv{
		path:  path,
		store: st,
		out:   out,
		runner: &Runner{
			Store: st,
			In:    strings.NewReader(input),
			Out:   out,
			Log:   zerolog.Nop(),
		},
	}
}

func (e *testEnv) run(t *testing.T, command string, args ...string) int {
	t.Helper()
	e.out.Reset()
	return e.runner.Run(context.Background(), command, args)
}

func tomorrow() string {
	return time.Now().Add(48 * time.Hour).Format(models.DisplayLayout)
}

func TestRunner_AddListComplete(t *testing.T) {
	env := newTestEnv(t, "")

	require.Equal(t, ExitSuccess, env.run(t, CommandAdd, "-priority", "high", "buy", "milk"))
	assert.Contains(t, env.out.String(), "Task added: buy milk")

	require.Equal(t, ExitSuccess, env.run(t, CommandAddTimed, "-deadline", tomorrow(), "file taxes"))

	require.Equal(t, ExitSuccess, env.run(t, CommandList))
	out := env.out.String()
	assert.Contains(t, out, "1. Basic Task: buy milk (Priority: high, Status: pending)")
	assert.Contains(t, out, "2. Timed Task: file taxes (Priority: medium, Status: pending)")

	require.Equal(t, ExitSuccess, env.run(t, CommandComplete, "1"))
	assert.Contains(t, env.out.String(), "Task marked as complete: buy milk")

	require.Equal(t, ExitSuccess, env.run(t, CommandList, "-status", "pending"))
	out = env.out.String()
	assert.NotContains(t, out, "buy milk")
	assert.Contains(t, out, "2. Timed Task: file taxes")

	require.Equal(t, ExitSuccess, env.run(t, CommandList, "-status", "completed"))
	assert.Contains(t, env.out.String(), "Completed: ")

	data, err := os.ReadFile(env.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "completed"`)
}

func TestRunner_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, "")

	assert.Equal(t, ExitTaskError, env.run(t, CommandAdd, "-priority", "urgent", "x"))
	assert.Contains(t, env.out.String(), "priority must be low, medium, or high")

	assert.Equal(t, ExitTaskError, env.run(t, CommandAdd, "   "))
	assert.Contains(t, env.out.String(), "description cannot be empty")

	past := time.Now().Add(-48 * time.Hour).Format(models.DisplayLayout)
	assert.Equal(t, ExitTaskError, env.run(t, CommandAddTimed, "-deadline", past, "x"))
	assert.Contains(t, env.out.String(), "deadline cannot be in the past")

	assert.Equal(t, ExitTaskError, env.run(t, CommandAddTimed, "-deadline", "next friday", "x"))
	assert.Contains(t, env.out.String(), "invalid date format")

	assert.Equal(t, ExitTaskError, env.run(t, CommandList, "-status", "done"))

	assert.Equal(t, 0, env.store.Len())
}

func TestRunner_InvocationErrors(t *testing.T) {
	env := newTestEnv(t, "")

	assert.Equal(t, ExitInvalidInvocation, env.run(t, CommandAddTimed, "x"))
	assert.Equal(t, ExitInvalidInvocation, env.run(t, CommandComplete))
	assert.Equal(t, ExitInvalidInvocation, env.run(t, CommandComplete, "zero"))
	assert.Equal(t, ExitInvalidInvocation, env.run(t, CommandComplete, "0"))
	assert.Equal(t, ExitInvalidInvocation, env.run(t, CommandOverdue, "now"))
	assert.Equal(t, ExitInvalidInvocation, env.run(t, "purge"))
}

func TestRunner_CompleteUnknownNumber(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, ExitSuccess, env.run(t, CommandAdd, "x"))

	assert.Equal(t, ExitTaskError, env.run(t, CommandComplete, "5"))
	assert.Contains(t, env.out.String(), "invalid task number 5")
}

func TestRunner_ListEmpty(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, ExitSuccess, env.run(t, CommandList))
	assert.Contains(t, env.out.String(), "No tasks found!")

	require.Equal(t, ExitSuccess, env.run(t, CommandOverdue))
	assert.Contains(t, env.out.String(), "No overdue tasks.")
}

func TestRunner_OverdueMarker(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, ExitSuccess, env.run(t, CommandAddTimed, "-deadline", tomorrow(), "report"))

	env.runner.Now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	require.Equal(t, ExitSuccess, env.run(t, CommandList))
	assert.Contains(t, env.out.String(), "! This task is overdue")
}

func TestRunner_WriteFailureIsReported(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, os.Mkdir(env.path, 0o755))

	assert.Equal(t, ExitTaskError, env.run(t, CommandAdd, "x"))
	assert.Contains(t, env.out.String(), "file operation error")
	assert.Equal(t, 0, env.store.Len())
}

func TestRunner_Menu(t *testing.T) {
	input := strings.Join([]string{
		"1", "buy milk", "high",
		// empty priority falls back to medium
		"2", "ship release", "", tomorrow(),
		"7",
		"3",
		"5", "9",
		"5", "1",
		"4",
		"1", "", "low",
		"6",
	}, "\n") + "\n"
	env := newTestEnv(t, input)

	code := env.runner.Run(context.Background(), CommandMenu, nil)
	assert.Equal(t, ExitSuccess, code)

	out := env.out.String()
	assert.Contains(t, out, "Task added: buy milk")
	assert.Contains(t, out, "Task added: ship release")
	assert.Contains(t, out, "Invalid choice. Please choose from: 1, 2, 3, 4, 5, 6")
	assert.Contains(t, out, "invalid task number 9")
	assert.Contains(t, out, "Task marked as complete: buy milk")
	assert.Contains(t, out, "description cannot be empty")
	assert.Contains(t, out, "Goodbye!")

	list := env.store.List("")
	require.Len(t, list, 2)
	assert.Equal(t, models.TaskStatusCompleted, list[0].Status())
	assert.Equal(t, models.TaskPriorityMedium, list[1].Priority())
	assert.Equal(t, models.TaskTypeTimed, list[1].Type())
}

func TestRunner_MenuEndOfInput(t *testing.T) {
	env := newTestEnv(t, "3\n")
	code := env.runner.Run(context.Background(), CommandMenu, nil)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, env.out.String(), "No tasks found!")
	assert.Contains(t, env.out.String(), "Goodbye!")
}

func TestRunner_MenuCancelled(t *testing.T) {
	env := newTestEnv(t, "")
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	env.runner.In = pr
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := env.runner.Run(ctx, CommandMenu, nil)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, env.out.String(), "Operation cancelled by user")
}
