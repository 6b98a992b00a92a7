package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Priority is the importance a user assigns to a task.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TaskStatus represents whether a task still needs doing.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Field limits and defaults applied to new tasks.
const (
	MaxTaskNameLength        = 100
	MaxTaskDescriptionLength = 500
	DefaultTaskCategory      = "general"
	DefaultTaskDuration      = 30
	DateLayout               = "2006-01-02"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID    = errors.New("task user ID cannot be empty")
	ErrEmptyTaskName      = errors.New("task name cannot be empty")
	ErrTaskNameTooLong    = errors.New("task name too long")
	ErrDescriptionTooLong = errors.New("task description too long")
	ErrEmptyDueDate       = errors.New("due date cannot be empty")
	ErrInvalidDueDate     = errors.New("invalid due date")
	ErrEmptyDueTime       = errors.New("due time cannot be empty")
	ErrInvalidDueTime     = errors.New("invalid due time")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrInvalidDuration    = errors.New("invalid task duration")
)

// Task is a user-owned unit of work with a due date and time.
//
// DueDate holds a calendar date at midnight UTC. DueTime is the local
// time of day on that date, in the timezone the reminder scanner is
// configured with.
type Task struct {
	ID                        uuid.UUID  `json:"id"`
	UserID                    uuid.UUID  `json:"user_id"`
	Name                      string     `json:"name"`
	Description               string     `json:"description"`
	DueDate                   time.Time  `json:"due_date"`
	DueTime                   string     `json:"due_time"`
	Priority                  Priority   `json:"priority"`
	Category                  string     `json:"category"`
	Status                    TaskStatus `json:"status"`
	DurationMinutes           int        `json:"duration_minutes"`
	Notified                  bool       `json:"notified"`
	NotificationAttempts      int        `json:"notification_attempts"`
	LastNotificationAttemptAt *time.Time `json:"last_notification_attempt_at,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// TaskOptions carries the optional fields of a new task. Zero values
// select the defaults.
type TaskOptions struct {
	Description     string
	Priority        Priority
	Category        string
	DurationMinutes int
}

// NewTask creates a pending, unnotified task for userID.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, name string, dueDate time.Time, dueTime string, opts TaskOptions) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            strings.TrimSpace(name),
		Description:     opts.Description,
		DueDate:         DateOnly(dueDate),
		DueTime:         canonicalClock(dueTime),
		Priority:        opts.Priority,
		Category:        opts.Category,
		Status:          TaskStatusPending,
		DurationMinutes: opts.DurationMinutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Category == "" {
		task.Category = DefaultTaskCategory
	}
	if task.DurationMinutes == 0 {
		task.DurationMinutes = DefaultTaskDuration
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Field errors are returned as *ValidationError.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if t.Name == "" {
		return NewValidationError("", "Task name is required", ErrEmptyTaskName)
	}

	if utf8.RuneCountInString(t.Name) > MaxTaskNameLength {
		return NewValidationError("", "Task name cannot be more than 100 characters", ErrTaskNameTooLong)
	}

	if utf8.RuneCountInString(t.Description) > MaxTaskDescriptionLength {
		return NewValidationError("", "Description cannot be more than 500 characters", ErrDescriptionTooLong)
	}

	if t.DueDate.IsZero() {
		return NewValidationError("", "Due date is required", ErrEmptyDueDate)
	}

	if t.DueTime == "" {
		return NewValidationError("", "Due time is required", ErrEmptyDueTime)
	}

	if _, err := ParseClock(t.DueTime); err != nil {
		return NewValidationError("", "Due time must be in HH:MM or HH:MM:SS format", ErrInvalidDueTime)
	}

	if !isValidPriority(t.Priority) {
		return NewValidationError("", "Priority must be one of low, medium, high", ErrInvalidPriority)
	}

	if !isValidTaskStatus(t.Status) {
		return NewValidationError("", "Status must be one of pending, completed", ErrInvalidTaskStatus)
	}

	if t.DurationMinutes < 1 {
		return NewValidationError("", "Duration must be at least 1 minute", ErrInvalidDuration)
	}

	return nil
}

// DueAt combines the due date and due time into an instant in loc.
func (t *Task) DueAt(loc *time.Location) (time.Time, error) {
	clock, err := ParseClock(t.DueTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.DueDate.Date()
	return time.Date(y, m, d, clock.Hour, clock.Minute, clock.Second, 0, loc), nil
}

// IsPending reports whether the task has not been completed.
func (t *Task) IsPending() bool {
	return t.Status == TaskStatusPending
}

// TaskPatch holds the fields of a partial update. A zero value in any
// field means "leave unchanged": an empty category, for example, never
// clears the stored category.
type TaskPatch struct {
	Name            string
	Description     string
	DueDate         time.Time
	DueTime         string
	Priority        Priority
	Category        string
	Status          TaskStatus
	DurationMinutes int
}

// Apply merges the non-zero fields of p into t and refreshes UpdatedAt.
// It reports whether the due date or due time changed, in which case the
// reminder state is reset so the new due moment gets its own reminder.
// The caller should Validate t afterwards.
func (p TaskPatch) Apply(t *Task) (rescheduled bool) {
	if p.Name != "" {
		t.Name = strings.TrimSpace(p.Name)
	}
	if p.Description != "" {
		t.Description = p.Description
	}
	if !p.DueDate.IsZero() {
		date := DateOnly(p.DueDate)
		if !date.Equal(t.DueDate) {
			rescheduled = true
		}
		t.DueDate = date
	}
	if p.DueTime != "" {
		clock := canonicalClock(p.DueTime)
		if clock != t.DueTime {
			rescheduled = true
		}
		t.DueTime = clock
	}
	if p.Priority != "" {
		t.Priority = p.Priority
	}
	if p.Category != "" {
		t.Category = p.Category
	}
	if p.Status != "" {
		t.Status = p.Status
	}
	if p.DurationMinutes != 0 {
		t.DurationMinutes = p.DurationMinutes
	}

	if rescheduled {
		t.Notified = false
		t.NotificationAttempts = 0
		t.LastNotificationAttemptAt = nil
	}
	t.UpdatedAt = time.Now().UTC()

	return rescheduled
}

// DueTask is a reminder candidate: a task together with its owner's email
// address. OwnerEmail is empty when the owner could not be resolved.
type DueTask struct {
	Task       Task
	OwnerEmail string
}

// TaskReminder is everything a notifier needs to remind a user about a task.
type TaskReminder struct {
	TaskID   uuid.UUID
	Email    string
	TaskName string
	DueDate  time.Time
	DueTime  string
	DueAt    time.Time
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// String formats the clock as HH:MM, or HH:MM:SS when seconds are set.
func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses a 24 hour time of day in HH:MM or HH:MM:SS form.
// A single digit hour is accepted.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidDueTime, s)
}

// ParseDueDate parses a calendar date in YYYY-MM-DD form, or an RFC 3339
// timestamp whose date part, as written, is used.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOnly(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, s)
}

// DateOnly strips the time of day from t, keeping its calendar date as
// seen in t's own location, and returns it at midnight UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// canonicalClock returns the canonical form of a parseable clock string,
// and the trimmed input otherwise so Validate can report it.
func canonicalClock(s string) string {
	clock, err := ParseClock(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return clock.String()
}

func isValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func isValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted:
		return true
	default:
		return false
	}
}
