package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDueDate(s)
	require.NoError(t, err)
	return d
}

func TestNewTask(t *testing.T) {
	userID := uuid.New()

	t.Run("applies defaults", func(t *testing.T) {
		task, err := NewTask(userID, "  Write report  ", mustDate(t, "2025-01-01"), "9:00", TaskOptions{})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, userID, task.UserID)
		assert.Equal(t, "Write report", task.Name)
		assert.Equal(t, "", task.Description)
		assert.Equal(t, "09:00", task.DueTime)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.Equal(t, DefaultTaskCategory, task.Category)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, DefaultTaskDuration, task.DurationMinutes)
		assert.False(t, task.Notified)
		assert.Zero(t, task.NotificationAttempts)
		assert.Nil(t, task.LastNotificationAttemptAt)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("keeps options", func(t *testing.T) {
		task, err := NewTask(userID, "Gym", mustDate(t, "2025-03-04"), "18:30:15", TaskOptions{
			Description:     "leg day",
			Priority:        PriorityHigh,
			Category:        "health",
			DurationMinutes: 90,
		})
		require.NoError(t, err)

		assert.Equal(t, "leg day", task.Description)
		assert.Equal(t, PriorityHigh, task.Priority)
		assert.Equal(t, "health", task.Category)
		assert.Equal(t, 90, task.DurationMinutes)
		assert.Equal(t, "18:30:15", task.DueTime)
	})

	tests := []struct {
		name    string
		taskNm  string
		date    time.Time
		clock   string
		opts    TaskOptions
		wantErr error
		wantMsg string
	}{
		{"blank name", "   ", mustDate(t, "2025-01-01"), "09:00", TaskOptions{}, ErrEmptyTaskName, "Task name is required"},
		{"long name", strings.Repeat("n", 101), mustDate(t, "2025-01-01"), "09:00", TaskOptions{}, ErrTaskNameTooLong, "Task name cannot be more than 100 characters"},
		{"long description", "ok", mustDate(t, "2025-01-01"), "09:00", TaskOptions{Description: strings.Repeat("d", 501)}, ErrDescriptionTooLong, "Description cannot be more than 500 characters"},
		{"missing date", "ok", time.Time{}, "09:00", TaskOptions{}, ErrEmptyDueDate, "Due date is required"},
		{"missing time", "ok", mustDate(t, "2025-01-01"), "", TaskOptions{}, ErrEmptyDueTime, "Due time is required"},
		{"bad time", "ok", mustDate(t, "2025-01-01"), "25:00", TaskOptions{}, ErrInvalidDueTime, "Due time must be in HH:MM or HH:MM:SS format"},
		{"bad priority", "ok", mustDate(t, "2025-01-01"), "09:00", TaskOptions{Priority: "urgent"}, ErrInvalidPriority, "Priority must be one of low, medium, high"},
		{"negative duration", "ok", mustDate(t, "2025-01-01"), "09:00", TaskOptions{DurationMinutes: -5}, ErrInvalidDuration, "Duration must be at least 1 minute"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := NewTask(userID, tc.taskNm, tc.date, tc.clock, tc.opts)

			require.Error(t, err)
			assert.Nil(t, task)
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}

	t.Run("missing user", func(t *testing.T) {
		_, err := NewTask(uuid.Nil, "ok", mustDate(t, "2025-01-01"), "09:00", TaskOptions{})
		assert.ErrorIs(t, err, ErrEmptyTaskUserID)
	})
}

func TestTaskValidateStatus(t *testing.T) {
	task, err := NewTask(uuid.New(), "ok", mustDate(t, "2025-01-01"), "09:00", TaskOptions{})
	require.NoError(t, err)

	task.Status = "archived"
	assert.ErrorIs(t, task.Validate(), ErrInvalidTaskStatus)

	task.Status = TaskStatusCompleted
	assert.NoError(t, task.Validate())
	assert.False(t, task.IsPending())
}

func TestTaskDueAt(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	task := &Task{DueDate: mustDate(t, "2025-06-30"), DueTime: "23:45"}

	due, err := task.DueAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 45, 0, 0, time.UTC), due)

	due, err = task.DueAt(kolkata)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 18, 15, 0, 0, time.UTC), due.UTC())

	task.DueTime = "noon"
	_, err = task.DueAt(time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDueTime)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "09:00", want: Clock{Hour: 9}},
		{in: "9:05", want: Clock{Hour: 9, Minute: 5}},
		{in: "23:59:59", want: Clock{Hour: 23, Minute: 59, Second: 59}},
		{in: " 00:00 ", want: Clock{}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "5pm", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDueTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.Equal(t, "07:05", Clock{Hour: 7, Minute: 5}.String())
	assert.Equal(t, "07:05:09", Clock{Hour: 7, Minute: 5, Second: 9}.String())
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDueDate("2025-01-02T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), d, "date part is kept as written")

	_, err = ParseDueDate("02/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = ParseDueDate("")
	assert.ErrorIs(t, err, ErrInvalidDueDate)
}

func TestTaskPatchApply(t *testing.T) {
	newTask := func(t *testing.T) *Task {
		task, err := NewTask(uuid.New(), "Original", mustDate(t, "2025-01-01"), "09:00", TaskOptions{
			Description: "desc",
			Category:    "work",
		})
		require.NoError(t, err)
		attemptAt := time.Now().UTC()
		task.Notified = true
		task.NotificationAttempts = 2
		task.LastNotificationAttemptAt = &attemptAt
		return task
	}

	t.Run("zero values are ignored", func(t *testing.T) {
		task := newTask(t)
		before := *task

		rescheduled := TaskPatch{Category: ""}.Apply(task)

		assert.False(t, rescheduled)
		assert.Equal(t, "work", task.Category)
		assert.Equal(t, before.Name, task.Name)
		assert.Equal(t, before.Description, task.Description)
		assert.Equal(t, before.DurationMinutes, task.DurationMinutes)
		assert.True(t, task.Notified, "reminder state is untouched")
	})

	t.Run("status and fields replace", func(t *testing.T) {
		task := newTask(t)

		rescheduled := TaskPatch{
			Name:            "  Renamed ",
			Status:          TaskStatusCompleted,
			Priority:        PriorityLow,
			DurationMinutes: 45,
		}.Apply(task)

		assert.False(t, rescheduled)
		assert.Equal(t, "Renamed", task.Name)
		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, PriorityLow, task.Priority)
		assert.Equal(t, 45, task.DurationMinutes)
		assert.NoError(t, task.Validate())
	})

	t.Run("same due moment is not a reschedule", func(t *testing.T) {
		task := newTask(t)

		rescheduled := TaskPatch{DueDate: mustDate(t, "2025-01-01"), DueTime: "9:00"}.Apply(task)

		assert.False(t, rescheduled)
		assert.True(t, task.Notified)
	})

	t.Run("new due time resets reminder state", func(t *testing.T) {
		task := newTask(t)

		rescheduled := TaskPatch{DueTime: "10:30"}.Apply(task)

		assert.True(t, rescheduled)
		assert.Equal(t, "10:30", task.DueTime)
		assert.False(t, task.Notified)
		assert.Zero(t, task.NotificationAttempts)
		assert.Nil(t, task.LastNotificationAttemptAt)
	})

	t.Run("new due date resets reminder state", func(t *testing.T) {
		task := newTask(t)

		rescheduled := TaskPatch{DueDate: mustDate(t, "2025-02-01")}.Apply(task)

		assert.True(t, rescheduled)
		assert.Equal(t, mustDate(t, "2025-02-01"), task.DueDate)
		assert.False(t, task.Notified)
	})

	t.Run("invalid merge fails validation", func(t *testing.T) {
		task := newTask(t)

		TaskPatch{Priority: "urgent"}.Apply(task)

		assert.ErrorIs(t, task.Validate(), ErrInvalidPriority)
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("email", "is required", nil)
	assert.Equal(t, "email is required", err.Error())
	assert.ErrorIs(t, err, ErrValidation)

	err = NewValidationError("", "Task name is required", ErrEmptyTaskName)
	assert.Equal(t, "Task name is required", err.Error())
	assert.ErrorIs(t, err, ErrEmptyTaskName)
	assert.ErrorIs(t, err, ErrValidation)
}
