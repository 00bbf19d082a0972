package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/internal/transport"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("list_wishlist_error", "status", 401, "error", err)
		return errUnauthorized
	}

	view, err := h.Svc.List(ctx, userID)
	if err != nil {
		return fail(l, "list_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *WishlistHTTP) Toggle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.toggle")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("toggle_wishlist_error", "status", 401, "error", err)
		return errUnauthorized
	}

	var req transport.ToggleWishlistRequest
	if err := bindValid(c, l, "toggle_wishlist_error", &req); err != nil {
		return err
	}

	added, err := h.Svc.Toggle(ctx, userID, uuid.MustParse(req.ProductID), req.ShadeID)
	if err != nil {
		return fail(l, "toggle_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"added": added})
}

func (h *WishlistHTTP) SetNotify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.notify")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("wishlist_notify_error", "status", 401, "error", err)
		return errUnauthorized
	}

	var req transport.WishlistNotifyRequest
	if err := bindValid(c, l, "wishlist_notify_error", &req); err != nil {
		return err
	}

	prefs, err := h.Svc.SetNotify(ctx, userID, req.PriceDrop, req.Restock)
	if err != nil {
		return fail(l, "wishlist_notify_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"notify": prefs})
}

func (h *WishlistHTTP) Alerts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.alerts")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("wishlist_alerts_error", "status", 401, "error", err)
		return errUnauthorized
	}

	alerts, err := h.Svc.Alerts(ctx, userID)
	if err != nil {
		return fail(l, "wishlist_alerts_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": alerts})
}
