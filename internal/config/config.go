package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// DriverName is the database/sql driver registered for a SQL backend.
func (b Backend) DriverName() string {
	switch b {
	case BackendSQLite:
		return "sqlite3"
	case BackendPostgres:
		return "postgres"
	default:
		return ""
	}
}

type Config struct {
	Storage StorageConfig
	Log     LogConfig
}

type StorageConfig struct {
	Backend   Backend `env:"TASKS_BACKEND" env-default:"json"`
	TasksFile string  `env:"TASKS_FILE" env-default:"tasks.json"`
	// DSN is required for the sqlite and postgres backends.
	DSN string `env:"TASKS_DSN" env-default:""`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"console"`
}

// Load reads envFile into the environment when it exists, then maps the
// environment onto Config. Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.Storage.Backend = Backend(strings.ToLower(strings.TrimSpace(string(cfg.Storage.Backend))))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendJSON:
		if strings.TrimSpace(c.Storage.TasksFile) == "" {
			errs = append(errs, errors.New("TASKS_FILE is required for the json backend"))
		}
	case BackendSQLite, BackendPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, fmt.Errorf("TASKS_DSN is required for the %s backend", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid TASKS_BACKEND %q (expected json|sqlite|postgres)", c.Storage.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT %q (expected console|json)", c.Log.Format))
	}
	return errors.Join(errs...)
}
