package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/internal/util"
	middleware "github.com/Skotchmaster/glowshop/pkg/middleware/auth"
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")

func currentUser(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("no user in context")
	}
	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

// optionalUser is nil for anonymous callers.
func optionalUser(c echo.Context) *uuid.UUID {
	id, err := currentUser(c)
	if err != nil {
		return nil
	}
	return &id
}

func bindValid(c echo.Context, l *slog.Logger, op string, req any) error {
	if err := c.Bind(req); err != nil {
		l.Warn(op, "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		msg := describe(err)
		l.Warn(op, "status", 400, "reason", msg, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return nil
}

func pathUUID(c echo.Context, l *slog.Logger, op, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		l.Warn(op, "status", 400, "reason", name+" is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is not a uuid")
	}
	return id, nil
}

// fail maps service errors onto HTTP errors. Storage failures are logged in
// full and answered with a generic message.
func fail(l *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(op, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, strings.TrimSuffix(err.Error(), ": "+service.ErrValidation.Error()))
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		l.Error(op, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func paged(c echo.Context, page, offset, limit int, total int64, items any) error {
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}
