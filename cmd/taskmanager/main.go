package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chepyr/go-task-manager/internal/cli"
	"github.com/chepyr/go-task-manager/internal/config"
	"github.com/chepyr/go-task-manager/internal/db"
	"github.com/chepyr/go-task-manager/internal/logger"
	"github.com/chepyr/go-task-manager/internal/store"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	inv, err := cli.ParseInvocation(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitCode(err)
	}

	cfg, err := config.Load(inv.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return cli.ExitConfigError
	}
	if inv.TasksFile != "" {
		cfg.Storage.Backend = config.BackendJSON
		cfg.Storage.TasksFile = inv.TasksFile
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return cli.ExitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closer, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		log.Error().Err(err).Str("backend", string(cfg.Storage.Backend)).Msg("failed to open storage")
		return cli.ExitInternalError
	}
	defer closer.Close()
	log.Debug().Str("backend", string(cfg.Storage.Backend)).Msg("storage opened")

	tasks := store.NewTaskStore(backend)
	if err := tasks.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("starting with empty task list")
		fmt.Fprintf(os.Stdout, "Error loading tasks: %v\n", err)
	} else {
		log.Debug().Int("count", tasks.Len()).Msg("tasks loaded")
	}

	runner := &cli.Runner{
		Store: tasks,
		In:    os.Stdin,
		Out:   os.Stdout,
		Log:   log,
	}
	return runner.Run(ctx, inv.Command, inv.Args)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openBackend(ctx context.Context, cfg config.StorageConfig) (db.Backend, io.Closer, error) {
	if cfg.Backend == config.BackendJSON {
		b, err := db.NewJSONFileBackend(cfg.TasksFile)
		if err != nil {
			return nil, nil, err
		}
		return b, nopCloser{}, nil
	}

	conn, err := db.Connect(cfg.Backend.DriverName(), cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	b := db.NewSQLBackend(conn)
	if err := b.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return b, conn, nil
}
