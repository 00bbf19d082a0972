package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/internal/transport"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return errUnauthorized
	}

	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("add_cart_item_error", "status", 401, "error", err)
		return errUnauthorized
	}

	var req transport.AddCartItemRequest
	if err := bindValid(c, l, "add_cart_item_error", &req); err != nil {
		return err
	}

	view, err := h.Svc.AddItem(ctx, userID, uuid.MustParse(req.ProductID), req.ShadeID, req.Qty)
	if err != nil {
		return fail(l, "add_cart_item_error", err)
	}

	l.Info("add_cart_item_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("update_cart_item_error", "status", 401, "error", err)
		return errUnauthorized
	}
	itemID, err := pathUUID(c, l, "update_cart_item_error", "itemId")
	if err != nil {
		return err
	}

	var req transport.UpdateCartItemRequest
	if err := bindValid(c, l, "update_cart_item_error", &req); err != nil {
		return err
	}

	view, err := h.Svc.UpdateItemQuantity(ctx, userID, itemID, *req.Qty)
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("remove_cart_item_error", "status", 401, "error", err)
		return errUnauthorized
	}
	itemID, err := pathUUID(c, l, "remove_cart_item_error", "itemId")
	if err != nil {
		return err
	}

	view, err := h.Svc.RemoveItem(ctx, userID, itemID)
	if err != nil {
		return fail(l, "remove_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "error", err)
		return errUnauthorized
	}

	view, err := h.Svc.ClearCart(ctx, userID)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("clear_cart_success")
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Recommend(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.recommend")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("recommend_error", "status", 401, "error", err)
		return errUnauthorized
	}

	recs, err := h.Svc.Recommend(ctx, userID)
	if err != nil {
		return fail(l, "recommend_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"recommendations": recs})
}
