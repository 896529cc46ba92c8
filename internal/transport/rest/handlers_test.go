package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ayosnow_backend/internal/domain"
	"ayosnow_backend/internal/middleware"
	"ayosnow_backend/internal/repository"
	"ayosnow_backend/internal/service"
	"ayosnow_backend/internal/utils"
	"ayosnow_backend/internal/utils/emaillock"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestEcho(t *testing.T, accounts AccountService) *echo.Echo {
	t.Helper()
	e := echo.New()
	RegisterErrorHandler(e, zap.NewNop())
	NewHTTPServer(accounts, func() time.Time { return fixedNow }, zap.NewNop()).RegisterRoutes(e)
	return e
}

func newAccounts() *service.AccountService {
	return service.NewAccountService(
		repository.NewMemoryUserRepository(),
		utils.PlainPasswords{},
		emaillock.NewLocalLocker(time.Second),
		zap.NewNop(),
	)
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) UserResponse {
	t.Helper()
	var resp UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

const workerBody = `{"name":"A","email":"a@x.com","password":"p","role":"WORKER","skill":"plumbing"}`

func TestHTTPServer_RegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		seed           bool
		body           string
		expectedStatus int
		expectedText   string
	}{
		{
			name:           "ok",
			body:           workerBody,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "400 duplicate email",
			seed:           true,
			body:           `{"name":"B","email":"a@x.com","password":"q","role":"CUSTOMER"}`,
			expectedStatus: http.StatusBadRequest,
			expectedText:   "Email already exists!",
		},
		{
			name:           "400 unknown role",
			body:           `{"name":"A","email":"a@x.com","password":"p","role":"ADMIN"}`,
			expectedStatus: http.StatusBadRequest,
			expectedText:   "Invalid role: must be CUSTOMER or WORKER",
		},
		{
			name:           "400 missing role",
			body:           `{"name":"A","email":"a@x.com","password":"p"}`,
			expectedStatus: http.StatusBadRequest,
			expectedText:   "Invalid role: must be CUSTOMER or WORKER",
		},
		{
			name:           "400 invalid JSON",
			body:           `{invalid`,
			expectedStatus: http.StatusBadRequest,
			expectedText:   "Invalid request body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, newAccounts())
			if tt.seed {
				require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/auth/register", workerBody).Code)
			}

			rec := do(e, http.MethodPost, "/api/auth/register", tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedText != "" {
				assert.Equal(t, tt.expectedText, rec.Body.String())
				assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain)
			}
		})
	}
}

func TestHTTPServer_RegisterUser_ResponseShape(t *testing.T) {
	e := newTestEcho(t, newAccounts())

	rec := do(e, http.MethodPost, "/api/auth/register", workerBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.ElementsMatch(t, []string{"id", "email", "name", "role", "skill"}, keys(raw))
	assert.EqualValues(t, 1, raw["id"])
	assert.Equal(t, "WORKER", raw["role"])
	assert.Equal(t, "plumbing", raw["skill"])

	rec = do(e, http.MethodPost, "/api/auth/register", `{"name":"C","email":"c@x.com","password":"p","role":"CUSTOMER"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	raw = map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "skill")
	assert.Nil(t, raw["skill"])
}

func TestHTTPServer_LoginUser(t *testing.T) {
	e := newTestEcho(t, newAccounts())
	reg := do(e, http.MethodPost, "/api/auth/register", workerBody)
	require.Equal(t, http.StatusOK, reg.Code)
	registered := decodeUser(t, reg)

	t.Run("ok", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeUser(t, rec)
		assert.Equal(t, registered.ID, got.ID)
		assert.Equal(t, "WORKER", got.Role)
		require.NotNil(t, got.Skill)
		assert.Equal(t, "plumbing", *got.Skill)
	})

	t.Run("401 is identical for wrong password and unknown email", func(t *testing.T) {
		wrong := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`)
		unknown := do(e, http.MethodPost, "/api/auth/login", `{"email":"b@x.com","password":"p"}`)

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, "Invalid email or password", wrong.Body.String())
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("400 invalid JSON", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/auth/login", `[`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPServer_UnsupportedContentType(t *testing.T) {
	e := newTestEcho(t, newAccounts())

	for _, path := range []string{"/api/auth/register", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(workerBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code, path)
	}
}

func newIdempotentEcho(t *testing.T) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { client.Close() })

	e := echo.New()
	RegisterErrorHandler(e, zap.NewNop())
	replay := middleware.Idempotency(middleware.NewRedisCache(client, zap.NewNop()), time.Hour, zap.NewNop())
	NewHTTPServer(newAccounts(), func() time.Time { return fixedNow }, zap.NewNop()).RegisterRoutes(e, replay)
	return e
}

func doWithKey(e *echo.Echo, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.IdempotencyHeader, key)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHTTPServer_IdempotencyKey(t *testing.T) {
	t.Run("login always checks credentials", func(t *testing.T) {
		e := newIdempotentEcho(t)
		require.Equal(t, http.StatusOK, doWithKey(e, "/api/auth/register", workerBody, "reg").Code)

		ok := doWithKey(e, "/api/auth/login", `{"email":"a@x.com","password":"p"}`, "k")
		require.Equal(t, http.StatusOK, ok.Code)

		wrong := doWithKey(e, "/api/auth/login", `{"email":"a@x.com","password":"WRONG"}`, "k")
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, "Invalid email or password", wrong.Body.String())

		empty := doWithKey(e, "/api/auth/login", `{}`, "k")
		assert.Equal(t, http.StatusUnauthorized, empty.Code)
	})

	t.Run("register replays the same request", func(t *testing.T) {
		e := newIdempotentEcho(t)
		first := doWithKey(e, "/api/auth/register", workerBody, "k")
		require.Equal(t, http.StatusOK, first.Code)

		again := doWithKey(e, "/api/auth/register", workerBody, "k")
		assert.Equal(t, http.StatusOK, again.Code)
		assert.Equal(t, first.Body.String(), again.Body.String())
	})

	t.Run("register refuses a reused key for another user", func(t *testing.T) {
		e := newIdempotentEcho(t)
		require.Equal(t, http.StatusOK, doWithKey(e, "/api/auth/register", workerBody, "k").Code)

		other := doWithKey(e, "/api/auth/register", `{"name":"Z","email":"z@x.com","password":"p","role":"CUSTOMER"}`, "k")
		assert.Equal(t, http.StatusUnprocessableEntity, other.Code)
		assert.NotContains(t, other.Body.String(), "a@x.com")

		login := do(e, http.MethodPost, "/api/auth/login", `{"email":"z@x.com","password":"p"}`)
		assert.Equal(t, http.StatusUnauthorized, login.Code)
	})
}

func TestHTTPServer_Test(t *testing.T) {
	e := newTestEcho(t, newAccounts())
	rec := do(e, http.MethodGet, "/api/auth/test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TestResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Backend is working!", resp.Message)
	assert.Equal(t, fixedNow.UnixMilli(), resp.Timestamp)
}

func TestHTTPServer_GetUserAndDashboard(t *testing.T) {
	e := newTestEcho(t, newAccounts())
	w := decodeUser(t, do(e, http.MethodPost, "/api/auth/register", workerBody))
	c := decodeUser(t, do(e, http.MethodPost, "/api/auth/register", `{"name":"C","email":"c@x.com","password":"p","role":"CUSTOMER"}`))

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedText   string
	}{
		{"user ok", "/api/users/" + itoa(c.ID), http.StatusOK, ""},
		{"user missing", "/api/users/999", http.StatusNotFound, "User not found"},
		{"user bad id", "/api/users/abc", http.StatusBadRequest, "Invalid user id"},
		{"dashboard worker", "/api/worker/dashboard/" + itoa(w.ID), http.StatusOK, ""},
		{"dashboard customer", "/api/worker/dashboard/" + itoa(c.ID), http.StatusForbidden, "Access denied: worker role required"},
		{"dashboard missing", "/api/worker/dashboard/999", http.StatusNotFound, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedText != "" {
				assert.Equal(t, tt.expectedText, rec.Body.String())
			}
		})
	}

	rec := do(e, http.MethodGet, "/api/worker/dashboard/"+itoa(w.ID), "")
	got := decodeUser(t, rec)
	require.NotNil(t, got.Skill)
	assert.Equal(t, "plumbing", *got.Skill)
}

type brokenAccounts struct{ AccountService }

func (brokenAccounts) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return nil, service.NewInternalServerError("failed to get user", errors.New("db down"))
}

func (brokenAccounts) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	return nil, errors.New("unexpected")
}

func TestHTTPServer_InternalErrorsAreHidden(t *testing.T) {
	e := newTestEcho(t, brokenAccounts{})

	rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalErrorMessage, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/users/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalErrorMessage, rec.Body.String())
}

func TestHTTPServer_UnknownRoute(t *testing.T) {
	e := newTestEcho(t, newAccounts())
	rec := do(e, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
