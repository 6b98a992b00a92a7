// Package main implements the entry point for the Schedule Master API
// server, which serves the task API and runs the due-task reminder scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/schedule-master-api/internal/config"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/platform/postgres"
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	migrate  string
	scanOnce bool
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&f.migrate, "migrate", "",
		fmt.Sprintf("run a database migration command and exit (%v)", postgres.MigrationCommands))
	fs.BoolVar(&f.scanOnce, "scan-once", false, "run one reminder scan and exit")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l, flags); err != nil {
		l.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run executes the mode selected by flags: a migration command, a single
// reminder scan, or the long-running server.
func run(ctx context.Context, cfg *config.Config, l *slog.Logger, flags cliFlags) error {
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("reminders_enabled", cfg.Reminder.Enabled),
		slog.Bool("redis_lock", cfg.Redis.URL != ""))

	db, err := openDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if flags.migrate != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, flags.migrate, l)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, "up", l); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if flags.scanOnce {
		defer app.cleanup()
		result, err := app.scanner.Run(ctx)
		if err != nil {
			return fmt.Errorf("reminder scan failed: %w", err)
		}
		l.Info("reminder scan completed",
			slog.Int("candidates", result.Candidates),
			slog.Int("notified", result.Notified),
			slog.Int("failed", result.Failed))
		return nil
	}

	return app.Run(ctx)
}
