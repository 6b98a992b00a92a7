package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/schedule-master-api/internal/domain"
)

// DueTaskQuery selects reminder candidates. It is a coarse, day level
// filter: callers narrow the result to an exact time window themselves.
type DueTaskQuery struct {
	// FromDate and ToDate bound the due date, both inclusive. Only their
	// calendar dates are used.
	FromDate time.Time
	ToDate   time.Time

	// MaxAttempts excludes tasks whose failed reminder attempts reached
	// this number. It must be positive.
	MaxAttempts int
}

// TaskStore defines the interface for task data persistence.
// Every user facing operation is scoped by owner: a task belonging to
// another user behaves exactly like a task that does not exist.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves the task with the given ID owned by userID.
	// Returns ErrTaskNotFound if it does not exist or is owned by someone else.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns all tasks owned by userID ordered by due date,
	// then due time, ascending.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update writes the user editable fields of task. The reminder columns
	// are left alone unless rescheduled is true, in which case they are
	// reset so the task is reminded again.
	// Returns ErrTaskNotFound if the task does not exist for task.UserID.
	Update(ctx context.Context, task *domain.Task, rescheduled bool) error

	// Delete removes the task with the given ID owned by userID.
	// Returns ErrTaskNotFound if it does not exist or is owned by someone else.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// FindDueCandidates returns pending, unnotified tasks matching q,
	// joined with their owner's email address.
	FindDueCandidates(ctx context.Context, q DueTaskQuery) ([]domain.DueTask, error)

	// MarkNotified sets the notified flag of task. It touches no other user
	// editable column, and only matches while the stored due date and time
	// still equal task's, so a reschedule made while the email was being
	// sent keeps its reset reminder. It returns false without error when
	// the task was already notified, rescheduled or deleted.
	MarkNotified(ctx context.Context, task *domain.Task, at time.Time) (bool, error)

	// RecordNotificationFailure counts a failed reminder attempt and leaves
	// the task unnotified so a later scan retries it. It matches rows the
	// same way as MarkNotified and returns ErrTaskNotFound when none does.
	RecordNotificationFailure(ctx context.Context, task *domain.Task, at time.Time) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
