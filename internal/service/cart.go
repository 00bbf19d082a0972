package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/pkg/events"
)

type CartStore interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddCartItem(ctx context.Context, userID, productID uuid.UUID, shadeID string, qty int) error
	SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) error
	DeleteCartItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	ProductsInCategories(ctx context.Context, categories []string, limit int) ([]models.Product, error)
}

type CartProduct struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
}

// CartLine.Product is nil when the product no longer exists; the line is kept.
type CartLine struct {
	ID        uuid.UUID    `json:"id"`
	ProductID uuid.UUID    `json:"productId"`
	Qty       int          `json:"qty"`
	ShadeID   *string      `json:"shadeId"`
	Product   *CartProduct `json:"product"`
}

type CartView struct {
	UserID           uuid.UUID       `json:"userId"`
	Items            []CartLine      `json:"items"`
	TotalItems       int             `json:"totalItems"`
	GrandTotal       decimal.Decimal `json:"grandTotal"`
	UnavailableItems int             `json:"unavailableItems"`
}

type Recommendation struct {
	ProductID  uuid.UUID `json:"productId"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
}

const (
	recommendLimit     = 6
	reasonFoundation   = "pairs_with_foundation"
	foundationCategory = "foundation"
)

var foundationCompanions = []string{"setting_spray", "primer", "loose_powder"}

type CartService struct {
	Repo   CartStore
	Events events.Publisher
}

func emptyCart(userID uuid.UUID) *CartView {
	return &CartView{UserID: userID, Items: []CartLine{}, GrandTotal: decimal.Zero}
}

// GetCart joins the stored lines with live catalog data. Totals are derived
// here on every read and never stored.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, userID, cart.Items)
}

func (s *CartService) buildView(ctx context.Context, userID uuid.UUID, items []models.CartItem) (*CartView, error) {
	view := emptyCart(userID)
	if len(items) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view.Items = make([]CartLine, 0, len(items))
	for _, it := range items {
		line := CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Qty:       it.Quantity,
		}
		if it.ShadeID != "" {
			shade := it.ShadeID
			line.ShadeID = &shade
		}

		view.TotalItems += it.Quantity
		if p, ok := products[it.ProductID]; ok {
			line.Product = &CartProduct{
				ID:          p.ID,
				Name:        p.Name,
				Price:       p.Price,
				ImageURL:    p.ImageURL,
				Description: p.Description,
				Category:    p.Category,
				Stock:       p.Stock,
			}
			view.GrandTotal = view.GrandTotal.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		} else {
			view.UnavailableItems++
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

// AddItem increments the (product, shade) line or creates it. A missing or
// non-positive qty counts as 1; no line may exceed models.MaxLineQty.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, shadeID string, qty *int) (*CartView, error) {
	if productID == uuid.Nil {
		return nil, invalid("productId is required")
	}
	n := 1
	if qty != nil && *qty > 1 {
		n = *qty
	}
	if n > models.MaxLineQty {
		return nil, invalid("qty is too large")
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}

	if err := s.Repo.AddCartItem(ctx, userID, productID, shadeID, n); err != nil {
		if errors.Is(err, repo.ErrLineQtyLimit) {
			return nil, invalid("qty would exceed %d for this item", models.MaxLineQty)
		}
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicCart, userID.String(), "cart_item_added", map[string]any{
		"userId":    userID,
		"productId": productID,
		"shadeId":   shadeID,
		"qty":       n,
	})
	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity sets qty exactly. qty must be a non-negative integer; 0 removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty float64) (*CartView, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 || qty != math.Trunc(qty) {
		return nil, invalid("qty must be a non-negative integer")
	}
	if qty > models.MaxLineQty {
		return nil, invalid("qty is too large")
	}

	if err := s.Repo.SetCartItemQuantity(ctx, userID, itemID, int(qty)); err != nil {
		return nil, notFound(err, "cart item")
	}

	events.Emit(ctx, s.Events, events.TopicCart, userID.String(), "cart_item_updated", map[string]any{
		"userId": userID,
		"itemId": itemID,
		"qty":    int(qty),
	})
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	if err := s.Repo.DeleteCartItem(ctx, userID, itemID); err != nil {
		return nil, notFound(err, "cart item")
	}

	events.Emit(ctx, s.Events, events.TopicCart, userID.String(), "cart_item_removed", map[string]any{
		"userId": userID,
		"itemId": itemID,
	})
	return s.GetCart(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicCart, userID.String(), "cart_cleared", map[string]any{"userId": userID})
	return emptyCart(userID), nil
}

// Recommend suggests companion products for what is already in the cart.
func (s *CartService) Recommend(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	recs := []Recommendation{}

	cart, err := s.Repo.GetCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recs, nil
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return recs, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	inCart := make(map[uuid.UUID]struct{}, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
		inCart[it.ProductID] = struct{}{}
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	hasFoundation := false
	for _, p := range products {
		if p.Category == foundationCategory {
			hasFoundation = true
			break
		}
	}
	if !hasFoundation {
		return recs, nil
	}

	suggestions, err := s.Repo.ProductsInCategories(ctx, foundationCompanions, recommendLimit)
	if err != nil {
		return nil, err
	}
	for _, p := range suggestions {
		if _, ok := inCart[p.ID]; ok {
			continue
		}
		recs = append(recs, Recommendation{ProductID: p.ID, Reason: reasonFoundation, Confidence: 0.8})
	}
	return recs, nil
}
