package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chepyr/go-task-manager/internal/models"
)

const menuText = `
Task Manager
1. Add basic task
2. Add timed task
3. View all tasks
4. View pending tasks
5. Mark task as complete
6. Exit`

// lineReader feeds stdin lines through a channel so a prompt can give up
// when ctx is cancelled.
type lineReader struct {
	lines <-chan string
}

func newLineReader(ctx context.Context, in io.Reader) *lineReader {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return &lineReader{lines: lines}
}

// next returns false on end of input or cancellation.
func (lr *lineReader) next(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lr.lines:
		return strings.TrimSpace(line), ok
	}
}

func (r *Runner) menu(parent context.Context) int {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	lr := newLineReader(ctx, r.In)
	ask := func(prompt string) (string, bool) {
		fmt.Fprint(r.Out, prompt)
		return lr.next(ctx)
	}

	for {
		fmt.Fprintln(r.Out, menuText)
		choice, ok := askChoice(r, ask, "Enter your choice (1-6): ", []string{"1", "2", "3", "4", "5", "6"})
		if !ok {
			return r.endMenu(parent)
		}

		switch choice {
		case "1", "2":
			desc, ok := ask("Enter task description: ")
			if !ok {
				return r.endMenu(parent)
			}
			priority, ok := askChoice(r, ask, "Enter priority (low/medium/high): ", []string{"low", "medium", "high", ""})
			if !ok {
				return r.endMenu(parent)
			}
			args := []string{"-priority", defaultPriority(priority)}
			if choice == "1" {
				r.report(r.add(ctx, append(args, "--", desc)))
				continue
			}
			deadline, ok := ask("Enter deadline (YYYY-MM-DD HH:MM): ")
			if !ok {
				return r.endMenu(parent)
			}
			r.report(r.addTimed(ctx, append(args, "-deadline", deadline, "--", desc)))
		case "3":
			r.printTasks("")
		case "4":
			r.printTasks(models.TaskStatusPending)
		case "5":
			r.printTasks("")
			if r.Store.Len() == 0 {
				continue
			}
			raw, ok := ask("Enter task number to mark as complete: ")
			if !ok {
				return r.endMenu(parent)
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				fmt.Fprintln(r.Out, "Please enter a number greater than or equal to 1")
				continue
			}
			r.report(r.markComplete(ctx, n))
		case "6":
			fmt.Fprintln(r.Out, "Goodbye!")
			return ExitSuccess
		}
	}
}

func (r *Runner) endMenu(ctx context.Context) int {
	if ctx.Err() != nil {
		fmt.Fprintln(r.Out, "\nOperation cancelled by user")
	} else {
		fmt.Fprintln(r.Out, "\nGoodbye!")
	}
	return ExitSuccess
}

func askChoice(r *Runner, ask func(string) (string, bool), prompt string, valid []string) (string, bool) {
	for {
		answer, ok := ask(prompt)
		if !ok {
			return "", false
		}
		answer = strings.ToLower(answer)
		for _, v := range valid {
			if answer == v {
				return answer, true
			}
		}
		shown := make([]string, 0, len(valid))
		for _, v := range valid {
			if v != "" {
				shown = append(shown, v)
			}
		}
		fmt.Fprintf(r.Out, "Invalid choice. Please choose from: %s\n", strings.Join(shown, ", "))
	}
}

func defaultPriority(p string) string {
	if p == "" {
		return string(models.TaskPriorityMedium)
	}
	return p
}
