package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/service/auth"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

// Client-facing messages shared by several handlers.
const (
	msgServerError   = "Server error"
	msgInvalidFormat = "Invalid request format"
	msgInvalidTaskID = "Invalid task ID"
	msgTaskNotFound  = "Task not found"
	msgUserExists    = "User already exists"
	msgUnauthorized  = "Not authorized, token failed"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the message a client may see for err.
// Validation errors carry messages written for users and are passed
// through; anything unrecognized becomes a generic server error.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgServerError
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return msgUnauthorized

	case errors.Is(err, store.ErrTaskNotFound):
		return msgTaskNotFound

	case errors.Is(err, domain.ErrInvalidID):
		return msgInvalidTaskID

	case errors.Is(err, store.ErrEmailExists):
		return msgUserExists

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid task data"
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	if errors.Is(err, domain.ErrValidation) {
		return "Invalid request data"
	}

	return msgServerError
}

// HandleAPIError writes the response for err. 5xx responses are logged at
// ERROR with the redacted cause; client errors at DEBUG.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// validationMessage turns the first failed validator tag into a message
// for the client. fallback is used for required fields, so each endpoint
// keeps its own wording for a missing field.
func validationMessage(err error, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fallback
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fallback
	case "email":
		return "Please enter a valid email"
	case "oneof":
		return fieldLabel(fe.Field()) + " must be one of " + fe.Param()
	case "min":
		return fieldLabel(fe.Field()) + " must be at least " + fe.Param()
	case "max":
		return fieldLabel(fe.Field()) + " cannot be more than " + fe.Param() + " characters"
	default:
		return "Invalid " + fieldLabel(fe.Field())
	}
}

func fieldLabel(field string) string {
	switch field {
	case "Duration":
		return "Duration (minutes)"
	case "Name":
		return "Task name"
	default:
		return field
	}
}
