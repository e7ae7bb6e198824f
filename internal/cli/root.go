// Package cli wires the queuectl command surface.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/joshu-sajeev/queuectl/internal/config"
	"github.com/joshu-sajeev/queuectl/internal/job"
	"github.com/joshu-sajeev/queuectl/internal/storage/sqlite"
)

// app holds the shared dependencies every subcommand needs. It is populated
// once per invocation by the root PersistentPreRunE.
type app struct {
	settings *config.Settings
	db       *gorm.DB
	repo     *sqlite.JobRepository
	service  *job.JobService
	log      zerolog.Logger
}

var shared app

func (a *app) init(cmd *cobra.Command) error {
	settings, err := config.LoadSettings(cmd.Context())
	if err != nil {
		return err
	}

	log, err := newLogger(settings)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(settings.DBPath)
	if err != nil {
		return err
	}

	repo := sqlite.NewJobRepository(db)

	a.settings = settings
	a.db = db
	a.repo = repo
	a.service = job.NewJobService(repo, settings.PIDFile)
	a.log = log
	return nil
}

// newLogger writes human-readable lines to stderr and appends the same lines
// to the log file for operator diagnosis.
func newLogger(settings *config.Settings) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true},
	}
	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(level), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "queuectl",
		Short:        "A CLI-based background job queue",
		Long:         "queuectl accepts shell-command jobs, persists them in SQLite, and executes them through a pool of worker processes with retries and a dead-letter queue.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return shared.init(cmd)
		},
	}

	root.AddCommand(
		newEnqueueCmd(),
		newStatusCmd(),
		newListCmd(),
		newWorkerCmd(),
		newDLQCmd(),
		newConfigCmd(),
		newOutputCmd(),
		newServeCmd(),
	)
	return root
}

// Execute runs the CLI. Errors are reported by cobra; callers map a non-nil
// return to a non-zero exit code.
func Execute() error {
	return newRootCmd().Execute()
}
