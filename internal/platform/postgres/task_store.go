package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

const taskColumns = `t.id, t.user_id, t.name, t.description, t.due_date, t.due_time,
	t.priority, t.category, t.status, t.duration_minutes, t.notified,
	t.notification_attempts, t.last_notification_attempt_at, t.created_at, t.updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, name, description, due_date, due_time, priority,
			category, status, duration_minutes, notified, notification_attempts,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Name,
		task.Description,
		task.DueDate.Format(domain.DateLayout),
		task.DueTime,
		string(task.Priority),
		task.Category,
		string(task.Status),
		task.DurationMinutes,
		task.Notified,
		task.NotificationAttempts,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, task.UserID)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.id = $1 AND t.user_id = $2
	`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.user_id = $1
		ORDER BY t.due_date ASC, t.due_time ASC, t.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, err
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update
// The reminder columns are only written when rescheduled is true, and then
// only to reset them, so a concurrent MarkNotified is never overwritten by
// a stale copy of the task.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task, rescheduled bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET name = $1,
			description = $2,
			due_date = $3::date,
			due_time = $4,
			priority = $5,
			category = $6,
			status = $7,
			duration_minutes = $8,
			updated_at = $9,
			notified = CASE WHEN $10::boolean THEN FALSE ELSE notified END,
			notification_attempts = CASE WHEN $10::boolean THEN 0 ELSE notification_attempts END,
			last_notification_attempt_at = CASE WHEN $10::boolean THEN NULL ELSE last_notification_attempt_at END
		WHERE id = $11 AND user_id = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Name,
		task.Description,
		task.DueDate.Format(domain.DateLayout),
		task.DueTime,
		string(task.Priority),
		task.Category,
		string(task.Status),
		task.DurationMinutes,
		task.UpdatedAt,
		rescheduled,
		task.ID,
		task.UserID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Debug("task not found for update", slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.Bool("rescheduled", rescheduled))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Debug("task not found for delete", slog.String("task_id", id.String()))
		return err
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// FindDueCandidates implements store.TaskStore.FindDueCandidates
// Tasks whose owner row is missing are still returned, with an empty email.
func (s *PostgresTaskStore) FindDueCandidates(ctx context.Context, q store.DueTaskQuery) ([]domain.DueTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + `, COALESCE(u.email, '')
		FROM tasks t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.status = 'pending'
			AND t.notified = FALSE
			AND t.due_date BETWEEN $1::date AND $2::date
			AND t.notification_attempts < $3
		ORDER BY t.due_date ASC, t.due_time ASC
	`
	rows, err := s.db.QueryContext(ctx, query,
		q.FromDate.Format(domain.DateLayout),
		q.ToDate.Format(domain.DateLayout),
		q.MaxAttempts,
	)
	if err != nil {
		log.Error("failed to query due tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []domain.DueTask
	for rows.Next() {
		var email string
		task, err := scanTask(rows, &email)
		if err != nil {
			log.Error("failed to scan due task row", slog.String("error", err.Error()))
			return nil, err
		}
		candidates = append(candidates, domain.DueTask{Task: *task, OwnerEmail: email})
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating due task rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("due task candidates loaded",
		slog.Int("count", len(candidates)),
		slog.String("from", q.FromDate.Format(domain.DateLayout)),
		slog.String("to", q.ToDate.Format(domain.DateLayout)))
	return candidates, nil
}

// MarkNotified implements store.TaskStore.MarkNotified
func (s *PostgresTaskStore) MarkNotified(ctx context.Context, task *domain.Task, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET notified = TRUE, last_notification_attempt_at = $2
		WHERE id = $1 AND notified = FALSE
			AND due_date = $3::date AND due_time = $4
	`, task.ID, at.UTC(), task.DueDate.Format(domain.DateLayout), task.DueTime)
	if err != nil {
		return false, MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Debug("task changed before it was marked notified",
				slog.String("task_id", task.ID.String()))
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RecordNotificationFailure implements store.TaskStore.RecordNotificationFailure
func (s *PostgresTaskStore) RecordNotificationFailure(ctx context.Context, task *domain.Task, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET notification_attempts = notification_attempts + 1,
			last_notification_attempt_at = $2
		WHERE id = $1 AND notified = FALSE
			AND due_date = $3::date AND due_time = $4
	`, task.ID, at.UTC(), task.DueDate.Format(domain.DateLayout), task.DueTime)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads the taskColumns from row, followed by any extra columns.
func scanTask(row rowScanner, extra ...any) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
		status   string
		lastTry  sql.NullTime
	)

	dest := []any{
		&task.ID,
		&task.UserID,
		&task.Name,
		&task.Description,
		&task.DueDate,
		&task.DueTime,
		&priority,
		&task.Category,
		&status,
		&task.DurationMinutes,
		&task.Notified,
		&task.NotificationAttempts,
		&lastTry,
		&task.CreatedAt,
		&task.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	task.DueDate = domain.DateOnly(task.DueDate)
	task.Priority = domain.Priority(priority)
	task.Status = domain.TaskStatus(status)
	if lastTry.Valid {
		t := lastTry.Time.UTC()
		task.LastNotificationAttemptAt = &t
	}

	return &task, nil
}
