package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/pkg/events"
)

const (
	AlertPriceDrop = "price_drop"
	AlertRestock   = "restock"

	alertWorkers = 8
)

type WishlistStore interface {
	GetWishlist(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error)
	ToggleWishlistItem(ctx context.Context, userID, productID uuid.UUID, shadeID string, allowAdd bool) (bool, error)
	SetWishlistNotify(ctx context.Context, userID uuid.UUID, priceDrop, restock *bool) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	LatestPrices(ctx context.Context, productID uuid.UUID, n int) ([]models.PriceHistory, error)
}

type NotifyPrefs struct {
	PriceDrop bool `json:"priceDrop"`
	Restock   bool `json:"restock"`
}

type WishlistEntry struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	ShadeID   *string         `json:"shadeId"`
	AddedAt   string          `json:"addedAt"`
	Product   *models.Product `json:"product"`
}

type WishlistView struct {
	Items  []WishlistEntry `json:"items"`
	Notify NotifyPrefs     `json:"notify"`
}

// Alert is either a price drop (From/To set) or a restock (Stock set).
type Alert struct {
	Type      string           `json:"type"`
	ProductID uuid.UUID        `json:"productId"`
	From      *decimal.Decimal `json:"from,omitempty"`
	To        *decimal.Decimal `json:"to,omitempty"`
	Stock     *int             `json:"stock,omitempty"`
}

type WishlistService struct {
	Repo   WishlistStore
	Events events.Publisher
}

func (s *WishlistService) wishlist(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	wl, err := s.Repo.GetWishlist(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Wishlist{UserID: userID, NotifyPriceDrop: true, NotifyRestock: true}, nil
	}
	return wl, err
}

// Toggle adds the (product, shade) entry when absent and removes it otherwise.
// Entries for deleted products can still be removed.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID, shadeID string) (bool, error) {
	if productID == uuid.Nil {
		return false, invalid("productId is required")
	}

	_, err := s.Repo.GetProduct(ctx, productID)
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	added, err := s.Repo.ToggleWishlistItem(ctx, userID, productID, shadeID, exists)
	if err != nil {
		return false, notFound(err, "product")
	}

	typ := "wishlist_item_removed"
	if added {
		typ = "wishlist_item_added"
	}
	events.Emit(ctx, s.Events, events.TopicWishlist, userID.String(), typ, map[string]any{
		"userId":    userID,
		"productId": productID,
		"shadeId":   shadeID,
	})
	return added, nil
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) (*WishlistView, error) {
	wl, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(wl.Items))
	for _, it := range wl.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &WishlistView{
		Items:  make([]WishlistEntry, 0, len(wl.Items)),
		Notify: NotifyPrefs{PriceDrop: wl.NotifyPriceDrop, Restock: wl.NotifyRestock},
	}
	for _, it := range wl.Items {
		entry := WishlistEntry{
			ID:        it.ID,
			ProductID: it.ProductID,
			AddedAt:   it.AddedAt.UTC().Format(exportTimeFmt),
		}
		if it.ShadeID != "" {
			shade := it.ShadeID
			entry.ShadeID = &shade
		}
		if p, ok := products[it.ProductID]; ok {
			entry.Product = &p
		}
		view.Items = append(view.Items, entry)
	}
	return view, nil
}

func (s *WishlistService) SetNotify(ctx context.Context, userID uuid.UUID, priceDrop, restock *bool) (*NotifyPrefs, error) {
	if err := s.Repo.SetWishlistNotify(ctx, userID, priceDrop, restock); err != nil {
		return nil, err
	}
	wl, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotifyPrefs{PriceDrop: wl.NotifyPriceDrop, Restock: wl.NotifyRestock}, nil
}

// Alerts is computed on read. Alerts follow wishlist order; for one product a
// price drop comes before a restock.
func (s *WishlistService) Alerts(ctx context.Context, userID uuid.UUID) ([]Alert, error) {
	wl, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []Alert{}
	if len(wl.Items) == 0 || (!wl.NotifyPriceDrop && !wl.NotifyRestock) {
		return out, nil
	}

	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(wl.Items))
	for _, it := range wl.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	drops := make(map[uuid.UUID]Alert)
	if wl.NotifyPriceDrop {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(alertWorkers)
		for _, id := range ids {
			if _, ok := products[id]; !ok {
				continue
			}
			g.Go(func() error {
				prices, err := s.Repo.LatestPrices(gctx, id, 2)
				if err != nil {
					return err
				}
				if len(prices) < 2 || !prices[0].Price.LessThan(prices[1].Price) {
					return nil
				}
				from, to := prices[1].Price, prices[0].Price
				mu.Lock()
				drops[id] = Alert{Type: AlertPriceDrop, ProductID: id, From: &from, To: &to}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			continue
		}
		if a, ok := drops[id]; ok {
			out = append(out, a)
		}
		if wl.NotifyRestock && p.Stock > 0 {
			stock := p.Stock
			out = append(out, Alert{Type: AlertRestock, ProductID: id, Stock: &stock})
		}
	}
	return out, nil
}
