package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

// MockTaskStore is an in-memory store.TaskStore with the same ownership
// and reminder bookkeeping rules as the PostgreSQL store.
type MockTaskStore struct {
	// OwnerEmail resolves a task owner's email for FindDueCandidates.
	// A nil func or an empty result models a missing owner.
	OwnerEmail func(userID uuid.UUID) string

	// Function fields for customizable behavior
	CreateFn                    func(ctx context.Context, task *domain.Task) error
	FindDueCandidatesFn         func(ctx context.Context, q store.DueTaskQuery) ([]domain.DueTask, error)
	MarkNotifiedFn              func(ctx context.Context, task *domain.Task, at time.Time) (bool, error)
	RecordNotificationFailureFn func(ctx context.Context, task *domain.Task, at time.Time) error

	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

// NewMockTaskStore creates an empty task store. users may be nil.
func NewMockTaskStore(users *MockUserStore) *MockTaskStore {
	m := &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	if users != nil {
		m.OwnerEmail = users.Email
	}
	return m
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create implements store.TaskStore.Create
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (m *MockTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

// ListByUser implements store.TaskStore.ListByUser
func (m *MockTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]*domain.Task, 0)
	for _, task := range m.tasks {
		if task.UserID == userID {
			clone := *task
			tasks = append(tasks, &clone)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return dueBefore(tasks[i], tasks[j]) })
	return tasks, nil
}

// Update implements store.TaskStore.Update
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task, rescheduled bool) error {
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.tasks[task.ID]
	if !ok || current.UserID != task.UserID {
		return store.ErrTaskNotFound
	}

	updated := *task
	if rescheduled {
		updated.Notified = false
		updated.NotificationAttempts = 0
		updated.LastNotificationAttemptAt = nil
	} else {
		updated.Notified = current.Notified
		updated.NotificationAttempts = current.NotificationAttempts
		updated.LastNotificationAttemptAt = current.LastNotificationAttemptAt
	}
	updated.CreatedAt = current.CreatedAt
	m.tasks[task.ID] = &updated
	return nil
}

// Delete implements store.TaskStore.Delete
func (m *MockTaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// FindDueCandidates implements store.TaskStore.FindDueCandidates
func (m *MockTaskStore) FindDueCandidates(ctx context.Context, q store.DueTaskQuery) ([]domain.DueTask, error) {
	if m.FindDueCandidatesFn != nil {
		return m.FindDueCandidatesFn(ctx, q)
	}

	from, to := domain.DateOnly(q.FromDate), domain.DateOnly(q.ToDate)

	m.mu.Lock()
	matches := make([]*domain.Task, 0)
	for _, task := range m.tasks {
		if !task.IsPending() || task.Notified {
			continue
		}
		if task.DueDate.Before(from) || task.DueDate.After(to) {
			continue
		}
		if task.NotificationAttempts >= q.MaxAttempts {
			continue
		}
		clone := *task
		matches = append(matches, &clone)
	}
	m.mu.Unlock()

	sort.SliceStable(matches, func(i, j int) bool { return dueBefore(matches[i], matches[j]) })

	candidates := make([]domain.DueTask, 0, len(matches))
	for _, task := range matches {
		var email string
		if m.OwnerEmail != nil {
			email = m.OwnerEmail(task.UserID)
		}
		candidates = append(candidates, domain.DueTask{Task: *task, OwnerEmail: email})
	}
	return candidates, nil
}

// MarkNotified implements store.TaskStore.MarkNotified
func (m *MockTaskStore) MarkNotified(ctx context.Context, task *domain.Task, at time.Time) (bool, error) {
	if m.MarkNotifiedFn != nil {
		return m.MarkNotifiedFn(ctx, task, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.reminderTarget(task)
	if stored == nil {
		return false, nil
	}
	at = at.UTC()
	stored.Notified = true
	stored.LastNotificationAttemptAt = &at
	return true, nil
}

// RecordNotificationFailure implements store.TaskStore.RecordNotificationFailure
func (m *MockTaskStore) RecordNotificationFailure(ctx context.Context, task *domain.Task, at time.Time) error {
	if m.RecordNotificationFailureFn != nil {
		return m.RecordNotificationFailureFn(ctx, task, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.reminderTarget(task)
	if stored == nil {
		return store.ErrTaskNotFound
	}
	at = at.UTC()
	stored.NotificationAttempts++
	stored.LastNotificationAttemptAt = &at
	return nil
}

// reminderTarget returns the stored copy of task while it is unnotified and
// still due when task says. The caller holds m.mu.
func (m *MockTaskStore) reminderTarget(task *domain.Task) *domain.Task {
	stored, ok := m.tasks[task.ID]
	if !ok || stored.Notified {
		return nil
	}
	if !stored.DueDate.Equal(task.DueDate) || stored.DueTime != task.DueTime {
		return nil
	}
	return stored
}

// WithTx implements store.TaskStore.WithTx
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// Task returns a copy of the stored task regardless of owner, for assertions.
func (m *MockTaskStore) Task(id uuid.UUID) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return *task, true
}

func dueBefore(a, b *domain.Task) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	if a.DueTime != b.DueTime {
		return a.DueTime < b.DueTime
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
