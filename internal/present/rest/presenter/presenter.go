package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/collabfund/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

var debug bool

// SetDebug makes internal errors carry their detail in the response body.
func SetDebug(enabled bool) {
	debug = enabled
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", err.Error()), slog.String("module", "presenter"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", msg), slog.String("module", "presenter"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(
		c.Request().Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("path", c.Path()),
		slog.String("module", "presenter"),
	)
	msg := "internal server error"
	if debug {
		msg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}

// Error maps a domain error onto its status code.
func Error(c echo.Context, err error) error {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		return InternalError(c, err)
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
