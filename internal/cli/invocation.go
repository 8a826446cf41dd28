package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ExitSuccess           = 0
	ExitTaskError         = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

const (
	CommandMenu     = "menu"
	CommandAdd      = "add"
	CommandAddTimed = "add-timed"
	CommandComplete = "complete"
	CommandList     = "list"
	CommandOverdue  = "overdue"
)

const usage = `usage: taskmanager [-env FILE] [-file FILE] [command] [args]

commands:
  menu                                     interactive menu (default)
  add [-priority P] DESCRIPTION            add a basic task
  add-timed -deadline "YYYY-MM-DD HH:MM" [-priority P] DESCRIPTION
                                           add a task with a deadline
  complete N                               mark task number N as completed
  list [-status pending|completed]         list tasks
  overdue                                  list timed tasks past their deadline`

// Invocation is the parsed command line. TasksFile overrides TASKS_FILE
// when set.
type Invocation struct {
	EnvFile   string
	TasksFile string
	Command   string
	Args      []string
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation reads the global flags and splits off the command.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("taskmanager", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var inv Invocation
	fs.StringVar(&inv.EnvFile, "env", ".env", "Optional .env file with TASKS_* and LOG_* settings.")
	fs.StringVar(&inv.TasksFile, "file", "", "JSON tasks file (overrides TASKS_FILE).")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Invocation{}, invalidInvocationf("%s", usage)
		}
		return Invocation{}, invalidInvocationf("%v\n%s", err, usage)
	}
	fileSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "file" {
			fileSet = true
		}
	})
	if fileSet && strings.TrimSpace(inv.TasksFile) == "" {
		return Invocation{}, invalidInvocationf("-file must not be empty")
	}

	rest := fs.Args()
	if len(rest) == 0 {
		inv.Command = CommandMenu
		return inv, nil
	}
	inv.Command = strings.ToLower(rest[0])
	inv.Args = rest[1:]

	switch inv.Command {
	case CommandMenu, CommandAdd, CommandAddTimed, CommandComplete, CommandList, CommandOverdue:
		return inv, nil
	default:
		return Invocation{}, invalidInvocationf("unknown command %q\n%s", rest[0], usage)
	}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	return ExitInternalError
}
