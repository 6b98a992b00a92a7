package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/schedule-master-api/internal/domain"
)

// MockNotifier records every reminder it is asked to send.
type MockNotifier struct {
	// SendFn allows test cases to fail or delay individual sends
	SendFn func(ctx context.Context, reminder domain.TaskReminder) error

	mu   sync.Mutex
	sent []domain.TaskReminder
}

// SendTaskReminder records the reminder, then delegates to SendFn if set.
// Only reminders that SendFn accepts are recorded as sent.
func (m *MockNotifier) SendTaskReminder(ctx context.Context, reminder domain.TaskReminder) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, reminder); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sent = append(m.sent, reminder)
	m.mu.Unlock()
	return nil
}

// Sent returns the reminders accepted so far.
func (m *MockNotifier) Sent() []domain.TaskReminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TaskReminder(nil), m.sent...)
}
