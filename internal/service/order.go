package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/pkg/events"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error)
	CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	OrderTotals(ctx context.Context) (repo.OrderTotals, error)
	TopOrderedProducts(ctx context.Context, limit int) ([]repo.ProductQuantity, error)
	OrderStamps(ctx context.Context, fn func(repo.OrderStamp) error) error
}

type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type CreateOrderInput struct {
	Items          []OrderLine
	Shipping       *models.Shipping
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	PaymentDetails models.Opaque
}

type DayRevenue struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TopProduct struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Qty       int64     `json:"qty"`
}

type Overview struct {
	Totals struct {
		Orders  int64           `json:"orders"`
		Revenue decimal.Decimal `json:"revenue"`
	} `json:"totals"`
	RevenueByDay []DayRevenue `json:"revenueByDay"`
	TopProducts  []TopProduct `json:"topProducts"`
}

type OrderService struct {
	Repo   OrderStore
	Events events.Publisher
}

func validateShipping(s *models.Shipping) error {
	if s == nil {
		return invalid("shipping is required")
	}
	required := map[string]string{
		"fullName":     s.FullName,
		"addressLine1": s.AddressLine1,
		"city":         s.City,
		"zipCode":      s.ZipCode,
		"country":      s.Country,
	}
	for _, name := range []string{"fullName", "addressLine1", "city", "zipCode", "country"} {
		if strings.TrimSpace(required[name]) == "" {
			return invalid("shipping.%s is required", name)
		}
	}
	return nil
}

// CreateOrder records an immutable pending order. Every referenced product must
// exist; stock and the cart are left untouched.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, invalid("order has no items")
	}
	for i, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return nil, invalid("items[%d].productId is required", i)
		}
		if it.Quantity < 1 {
			return nil, invalid("items[%d].quantity must be at least 1", i)
		}
	}
	if err := validateShipping(in.Shipping); err != nil {
		return nil, err
	}
	if !in.TotalAmount.IsPositive() {
		return nil, invalid("totalAmount must be positive")
	}

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCard
	}
	if method != models.PaymentCard && method != models.PaymentCOD {
		return nil, invalid("paymentMethod must be card or cod")
	}

	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, it := range in.Items {
		if !slices.Contains(ids, it.ProductID) {
			ids = append(ids, it.ProductID)
		}
	}
	found, err := s.Repo.CountProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	if found != int64(len(ids)) {
		return nil, invalid("some products are invalid")
	}

	order := &models.Order{
		UserID:         userID,
		Shipping:       *in.Shipping,
		TotalAmount:    in.TotalAmount,
		PaymentMethod:  method,
		PaymentDetails: in.PaymentDetails,
		Status:         models.OrderStatusPending,
		Items:          make([]models.OrderItem, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		order.Items = append(order.Items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicOrder, order.ID.String(), "order_created", map[string]any{
		"orderId":     order.ID,
		"userId":      userID,
		"totalAmount": order.TotalAmount,
		"items":       len(order.Items),
	})
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.Repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	total, orders, err := s.Repo.ListOrders(ctx, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	if err := s.attachProducts(ctx, orders); err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// attachProducts fills OrderItem.Product from the live catalog; deleted products stay nil.
func (s *OrderService) attachProducts(ctx context.Context, orders []models.Order) error {
	var ids []uuid.UUID
	for _, o := range orders {
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range orders {
		for j := range orders[i].Items {
			if p, ok := products[orders[i].Items[j].ProductID]; ok {
				p := p
				orders[i].Items[j].Product = &p
			}
		}
	}
	return nil
}

// AdvanceStatus sets any valid status; transitions are not restricted.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	if !slices.Contains(models.OrderStatuses, status) {
		return nil, invalid("status must be one of %s", strings.Join(models.OrderStatuses, ", "))
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, notFound(err, "order")
	}

	events.Emit(ctx, s.Events, events.TopicOrder, order.ID.String(), "order_status_changed", map[string]any{
		"orderId": order.ID,
		"status":  status,
	})
	return order, nil
}

// Overview gathers the admin dashboard figures concurrently.
func (s *OrderService) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{RevenueByDay: []DayRevenue{}, TopProducts: []TopProduct{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.Repo.OrderTotals(gctx)
		if err != nil {
			return err
		}
		out.Totals.Orders = totals.Orders
		out.Totals.Revenue = totals.Revenue
		return nil
	})

	g.Go(func() error {
		return s.Repo.OrderStamps(gctx, func(st repo.OrderStamp) error {
			day := st.CreatedAt.UTC().Format("2006-01-02")
			if n := len(out.RevenueByDay); n > 0 && out.RevenueByDay[n-1].Day == day {
				out.RevenueByDay[n-1].Revenue = out.RevenueByDay[n-1].Revenue.Add(st.TotalAmount)
				return nil
			}
			out.RevenueByDay = append(out.RevenueByDay, DayRevenue{Day: day, Revenue: st.TotalAmount})
			return nil
		})
	})

	g.Go(func() error {
		top, err := s.Repo.TopOrderedProducts(gctx, 5)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(top))
		for _, t := range top {
			ids = append(ids, t.ProductID)
		}
		products, err := s.Repo.ProductsByIDs(gctx, ids)
		if err != nil {
			return err
		}
		for _, t := range top {
			p, ok := products[t.ProductID]
			if !ok {
				continue
			}
			out.TopProducts = append(out.TopProducts, TopProduct{ProductID: t.ProductID, Name: p.Name, Qty: t.Qty})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
