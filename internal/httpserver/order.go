package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/internal/transport"
	"github.com/Skotchmaster/glowshop/internal/util"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "error", err)
		return errUnauthorized
	}

	var req transport.CreateOrderRequest
	if err := bindValid(c, l, "create_order_error", &req); err != nil {
		return err
	}

	in := service.CreateOrderInput{
		Shipping:       req.Shipping,
		TotalAmount:    req.TotalAmount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Items:          make([]service.OrderLine, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.OrderLine{ProductID: uuid.MustParse(it.ProductID), Quantity: it.Quantity})
	}

	order, err := h.Svc.CreateOrder(ctx, userID, in)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_mine")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("list_my_orders_error", "status", 401, "error", err)
		return errUnauthorized
	}

	orders, err := h.Svc.ListMyOrders(ctx, userID)
	if err != nil {
		return fail(l, "list_my_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return paged(c, page, offset, limit, total, orders)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := pathUUID(c, l, "update_order_status_error", "id")
	if err != nil {
		return err
	}

	var req transport.UpdateOrderStatusRequest
	if err := bindValid(c, l, "update_order_status_error", &req); err != nil {
		return err
	}

	order, err := h.Svc.AdvanceStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "update_order_status_error", err)
	}

	l.Info("update_order_status_success", "order_id", id, "status", req.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.overview")

	ov, err := h.Svc.Overview(ctx)
	if err != nil {
		return fail(l, "analytics_overview_error", err)
	}
	return c.JSON(http.StatusOK, ov)
}
