package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/schedule-master-api/internal/config"
	"github.com/phrazzld/schedule-master-api/internal/platform/postgres"
	"github.com/phrazzld/schedule-master-api/internal/platform/redis"
	"github.com/phrazzld/schedule-master-api/internal/platform/sendgrid"
	"github.com/phrazzld/schedule-master-api/internal/reminder"
	"github.com/phrazzld/schedule-master-api/internal/service"
	"github.com/phrazzld/schedule-master-api/internal/service/auth"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

// application holds all the shared application dependencies so they can
// be wired once and cleaned up together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService

	scanner   *reminder.Scanner
	scheduler *reminder.Scheduler
}

// openDatabase connects to PostgreSQL through the pgx database/sql driver
// and checks the connection.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

// newApplication wires stores, services and the reminder scanner on top of
// an open database. Redis is connected here when configured.
// The caller keeps ownership of db when an error is returned.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}
	defer func() {
		if err != nil && app.redis != nil {
			_ = app.redis.Close()
		}
	}()

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.taskService, err = service.NewTaskService(app.taskStore, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	notifier, err := sendgrid.NewNotifier(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder notifier: %w", err)
	}

	lock, err := app.setupRunLock(ctx)
	if err != nil {
		return nil, err
	}

	scannerCfg, err := reminder.ScannerConfigFrom(cfg.Reminder)
	if err != nil {
		return nil, err
	}
	app.scanner, err = reminder.NewScanner(app.taskStore, notifier, scannerCfg,
		reminder.WithRunLock(lock),
		reminder.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder scanner: %w", err)
	}

	if cfg.Reminder.Enabled {
		app.scheduler, err = reminder.NewScheduler(app.scanner, cfg.Reminder.ScanInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create reminder scheduler: %w", err)
		}
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupRunLock returns the lock that keeps scanner runs exclusive across
// instances. Without Redis only the in-process guard applies.
func (app *application) setupRunLock(ctx context.Context) (reminder.RunLock, error) {
	if app.config.Redis.URL == "" {
		app.logger.Info("redis not configured, reminder scans are only serialized within this process")
		return reminder.NoopRunLock{}, nil
	}

	client, err := redis.NewClient(ctx, app.config.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client
	app.logger.Info("redis run lock enabled")
	return redis.NewRunLock(client, redis.DefaultLockKey, app.logger), nil
}

// Run starts the reminder scheduler and the HTTP server, and blocks until
// ctx is cancelled or the server fails.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		if err := app.scheduler.Start(); err != nil {
			app.cleanup()
			return err
		}
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the database and Redis connections. The scheduler is
// stopped separately since stopping it needs a deadline.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
