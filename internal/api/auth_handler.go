package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/service/auth"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

const (
	msgMissingFields      = "Please enter all fields"
	msgInvalidCredentials = "Invalid credentials"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	validator        *validator.Validate
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		validator:        validator.New(),
		logger:           logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidFormat, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, validationMessage(err, msgMissingFields))
		return
	}

	user, err := domain.NewUser(req.Email, req.Password)
	if err != nil {
		message := "Invalid user data"
		switch {
		case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrEmptyEmail):
			message = "Please enter a valid email"
		case errors.Is(err, domain.ErrPasswordTooLong):
			message = "Password cannot be more than 72 characters"
		}
		RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err)
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			RespondWithError(w, r, http.StatusBadRequest, msgUserExists)
			return
		}
		RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    userToResponse(user),
		Token:   token,
	})
}

// Login handles POST /api/auth/login.
//
// An unknown email and a wrong password get the same response, and both
// cost one bcrypt comparison.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidFormat, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, msgMissingFields)
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = h.passwordVerifier.Compare(auth.DummyHash(), req.Password)
			RespondWithError(w, r, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
		RespondWithError(w, r, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.ID)
	if err != nil {
		RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		Message: "Logged in successfully",
		User:    userToResponse(user),
		Token:   token,
	})
}
