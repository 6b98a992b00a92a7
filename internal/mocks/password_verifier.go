package mocks

import (
	"errors"
	"sync"

	"github.com/phrazzld/schedule-master-api/internal/service/auth"
)

// ErrPasswordMismatch is returned by MockPasswordVerifier when ShouldSucceed is false.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier for testing
type MockPasswordVerifier struct {
	// ShouldSucceed determines whether the password comparison should succeed
	ShouldSucceed bool

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	mu    sync.Mutex
	calls []CompareCall
}

// CompareCall records the arguments of one Compare call.
type CompareCall struct {
	HashedPassword string
	Password       string
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.mu.Lock()
	m.calls = append(m.calls, CompareCall{HashedPassword: hashedPassword, Password: password})
	m.mu.Unlock()

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if m.ShouldSucceed {
		return nil
	}
	return ErrPasswordMismatch
}

// Calls returns the recorded Compare calls in order.
func (m *MockPasswordVerifier) Calls() []CompareCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompareCall(nil), m.calls...)
}
