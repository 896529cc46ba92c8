// Package rest serves the account API over HTTP.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ayosnow_backend/internal/domain"
	"ayosnow_backend/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AccountService interface {
	Register(ctx context.Context, candidate domain.User) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id uint64) (*domain.User, error)
	GetWorkerDashboardData(ctx context.Context, workerID uint64) (*domain.User, error)
}

type HTTPServer struct {
	accounts AccountService
	now      func() time.Time
	logger   *zap.Logger
}

func NewHTTPServer(accounts AccountService, now func() time.Time, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		accounts: accounts,
		now:      now,
		logger:   logger.With(zap.String("component", "HTTPServer")),
	}
}

// RegisterRoutes mounts the API on e. registerMiddleware applies to the
// register route only.
func (h *HTTPServer) RegisterRoutes(e *echo.Echo, registerMiddleware ...echo.MiddlewareFunc) {
	auth := e.Group("/api/auth")
	auth.POST("/register", h.RegisterUser, registerMiddleware...)
	auth.POST("/login", h.LoginUser)
	auth.GET("/test", h.Test)

	e.GET("/api/users/:id", h.GetUser)
	e.GET("/api/worker/dashboard/:id", h.GetWorkerDashboard)
}

// RegisterUser (POST /api/auth/register).
func (h *HTTPServer) RegisterUser(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return service.NewInvalidRoleError("Invalid role: must be CUSTOMER or WORKER", err)
	}

	user, err := h.accounts.Register(c.Request().Context(), toUser(req, role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// LoginUser (POST /api/auth/login).
func (h *HTTPServer) LoginUser(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	user, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Test (GET /api/auth/test) is a liveness probe for the frontend.
func (h *HTTPServer) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, TestResponse{
		Message:   "Backend is working!",
		Timestamp: h.now().UnixMilli(),
	})
}

// GetUser (GET /api/users/:id).
func (h *HTTPServer) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// GetWorkerDashboard (GET /api/worker/dashboard/:id).
func (h *HTTPServer) GetWorkerDashboard(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetWorkerDashboardData(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// bindError keeps echo's own status for anything other than a malformed
// body, e.g. 415 for an unsupported Content-Type.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != http.StatusBadRequest {
		return he
	}
	return service.NewBadParameterError("Invalid request body", err)
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, service.NewBadParameterError("Invalid user id", err)
	}
	return id, nil
}
