package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/schedule-master-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
// The email format is not validated so a malformed address gets the same
// answer as an unknown one.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

// TaskRequest is the payload for creating and updating tasks.
//
// On update every field is optional, and an empty string or a zero
// duration leaves the stored value unchanged. A field therefore cannot be
// cleared through this endpoint.
type TaskRequest struct {
	Name        string `json:"name"        validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	DueDate     string `json:"dueDate"`
	DueTime     string `json:"dueTime"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Category    string `json:"category"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending completed"`
	Duration    int    `json:"duration"    validate:"omitempty,min=1"`
}

// TaskResponse is the JSON view of a task.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	DueTime     string    `json:"dueTime"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Duration    int       `json:"duration"`
	Notified    bool      `json:"notified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email}
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Name:        task.Name,
		Description: task.Description,
		DueDate:     task.DueDate.Format(domain.DateLayout),
		DueTime:     task.DueTime,
		Priority:    string(task.Priority),
		Category:    task.Category,
		Status:      string(task.Status),
		Duration:    task.DurationMinutes,
		Notified:    task.Notified,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}
