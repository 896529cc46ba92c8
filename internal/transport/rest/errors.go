package rest

import (
	"errors"
	"net/http"

	"ayosnow_backend/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const internalErrorMessage = "an internal server error has occurred"

// RegisterErrorHandler installs the handler that turns every returned error
// into a status code and a plain text message.
func RegisterErrorHandler(e *echo.Echo, logger *zap.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMap(), logger).Handler
}

func NewErrorCodeToStatusCodeMap() map[string]int {
	return map[string]int{
		service.ErrBadParameter:        http.StatusBadRequest,
		service.ErrInvalidRole:         http.StatusBadRequest,
		service.ErrDuplicateEmail:      http.StatusBadRequest,
		service.ErrInvalidCredentials:  http.StatusUnauthorized,
		service.ErrAccessDenied:        http.StatusForbidden,
		service.ErrEntityNotFound:      http.StatusNotFound,
		service.ErrInternalServerError: http.StatusInternalServerError,
	}
}

type HTTPErrorHandler struct {
	statusByCode map[string]int
	logger       *zap.Logger
}

func NewHTTPErrorHandler(statusByCode map[string]int, logger *zap.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		statusByCode: statusByCode,
		logger:       logger.With(zap.String("component", "HTTPErrorHandler")),
	}
}

func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := h.resolve(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("HTTP request error", zap.String("path", c.Path()), zap.Error(err))
	} else {
		h.logger.Info("HTTP request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.String(status, message)
}

func (h *HTTPErrorHandler) resolve(err error) (int, string) {
	var accErr service.AccountError
	if errors.As(err, &accErr) {
		status, ok := h.statusByCode[accErr.Code]
		if !ok || status >= http.StatusInternalServerError {
			return http.StatusInternalServerError, internalErrorMessage
		}
		return status, accErr.Message
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	return http.StatusInternalServerError, internalErrorMessage
}
