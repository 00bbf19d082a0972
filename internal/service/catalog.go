package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/internal/search"
	"github.com/Skotchmaster/glowshop/pkg/events"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

type CatalogStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error)
	SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	CreateProduct(ctx context.Context, prod *models.Product) error
	CreateProducts(ctx context.Context, prods []models.Product) error
	PatchProduct(ctx context.Context, id uuid.UUID, patch repo.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ProductInput struct {
	Name        string
	Description string
	ImageURL    string
	Category    string
	Price       decimal.Decimal
	Stock       int
}

type CatalogService struct {
	Repo CatalogStore
	// Search is optional; without it search runs against the catalog store.
	Search search.Engine
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return 0, nil, invalid("minPrice must not exceed maxPrice")
	}
	return s.Repo.ListProducts(ctx, f)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, []models.Product{}, nil
	}

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			byID, err := s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			items := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok {
					items = append(items, p)
				}
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_engine_failed", "fallback", "sql", "error", err)
	}

	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if in.Price.IsNegative() {
		return invalid("price must be non-negative")
	}
	if in.Stock < 0 {
		return invalid("stock must be non-negative")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.index(ctx, *prod)
	events.Emit(ctx, s.Events, events.TopicProduct, prod.ID.String(), "product_created", map[string]any{
		"productId": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
	})
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, patch repo.ProductPatch) (*models.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name must not be empty")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, invalid("price must be non-negative")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, invalid("stock must be non-negative")
	}

	prod, err := s.Repo.PatchProduct(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "product")
	}

	s.index(ctx, *prod)
	events.Emit(ctx, s.Events, events.TopicProduct, prod.ID.String(), "product_updated", map[string]any{
		"productId": prod.ID,
		"price":     prod.Price,
		"stock":     prod.Stock,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}

	if s.Search != nil {
		if err := s.Search.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "product_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProduct, id.String(), "product_deleted", map[string]any{"productId": id})
	return nil
}

func (s *CatalogService) index(ctx context.Context, p models.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}
