package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/mocks"
	"github.com/phrazzld/schedule-master-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRegisterPassesNormalizedUserToStore(t *testing.T) {
	t.Parallel()

	users := new(mocks.TestifyMockUserStore)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "mixed@example.com" && u.Password == "password123"
	})).Return(nil).Once()

	h := NewAuthHandler(users, &mocks.MockJWTService{Token: "token"}, &mocks.MockPasswordVerifier{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		bytes.NewBufferString(`{"email":"Mixed@Example.com","password":"password123"}`))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
}

func TestRegisterStoreFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"duplicate", store.ErrEmailExists, http.StatusBadRequest, "User already exists"},
		{"wrapped duplicate", errors.Join(errors.New("insert"), store.ErrEmailExists), http.StatusBadRequest, "User already exists"},
		{"database down", errors.New("connection refused"), http.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := new(mocks.TestifyMockUserStore)
			users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(tt.err)
			jwtService := &mocks.MockJWTService{}

			h := NewAuthHandler(users, jwtService, &mocks.MockPasswordVerifier{}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
				bytes.NewBufferString(`{"email":"a@example.com","password":"password123"}`))
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody[ErrorResponse](t, rec).Message)
			users.AssertExpectations(t)
		})
	}
}

func TestLoginLooksUpByEmail(t *testing.T) {
	t.Parallel()

	users := new(mocks.TestifyMockUserStore)
	users.On("GetByEmail", mock.Anything, "someone@example.com").
		Return(nil, store.ErrUserNotFound).Once()
	verifier := &mocks.MockPasswordVerifier{}

	h := NewAuthHandler(users, &mocks.MockJWTService{}, verifier, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"someone@example.com","password":"secret"}`)).
		WithContext(context.Background())
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, verifier.Calls(), 1)
	users.AssertExpectations(t)
}
