package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/schedule-master-api/internal/api/middleware"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/mocks"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/service"
	"github.com/phrazzld/schedule-master-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// testEnv wires the handlers to in-memory stores. Bearer tokens are the
// user's UUID, so tests can act as any user without signing JWTs.
type testEnv struct {
	router   http.Handler
	users    *mocks.MockUserStore
	tasks    *mocks.MockTaskStore
	verifier *mocks.MockPasswordVerifier
	jwt      *mocks.MockJWTService
	sql      sqlmock.Sqlmock
	logs     *logger.TestLogBuffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, buf := logger.NewTestLogger()
	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore(users)
	verifier := &mocks.MockPasswordVerifier{
		CompareFn: func(hashed, password string) error {
			if hashed == "hashed:"+password {
				return nil
			}
			return mocks.ErrPasswordMismatch
		},
	}
	jwtService := &mocks.MockJWTService{
		GenerateTokenFn: func(ctx context.Context, userID uuid.UUID) (string, error) {
			return userID.String(), nil
		},
		ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
			id, err := uuid.Parse(token)
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id, TokenType: auth.TokenTypeAccess}, nil
		},
	}

	taskService, err := service.NewTaskService(tasks, db, log)
	require.NoError(t, err)

	authHandler := NewAuthHandler(users, jwtService, verifier, log)
	taskHandler := NewTaskHandler(taskService, log)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/", taskHandler.ListTasks)
		r.Get("/{id}", taskHandler.GetTask)
		r.Put("/{id}", taskHandler.UpdateTask)
		r.Delete("/{id}", taskHandler.DeleteTask)
	})

	return &testEnv{
		router:   r,
		users:    users,
		tasks:    tasks,
		verifier: verifier,
		jwt:      jwtService,
		sql:      sqlMock,
		logs:     buf,
	}
}

// do sends a request; token may be empty for unauthenticated calls.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// createUser registers a user directly in the store and returns the
// bearer token that authenticates as them.
func (e *testEnv) createUser(t *testing.T, email string) (*domain.User, string) {
	t.Helper()
	user, err := domain.NewUser(email, "password123")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), user))
	return user, user.ID.String()
}

// createTask creates a task over HTTP and returns the decoded response.
func (e *testEnv) createTask(t *testing.T, token string, body map[string]interface{}) TaskResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[TaskResponse](t, rec)
}

// expectTx registers one transaction with the SQL mock.
func (e *testEnv) expectTx(commit bool) {
	e.sql.ExpectBegin()
	if commit {
		e.sql.ExpectCommit()
	} else {
		e.sql.ExpectRollback()
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&v), rec.Body.String())
	return v
}
