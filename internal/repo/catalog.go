package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating_desc"
)

type ProductFilter struct {
	Query     string
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
	Sort      string
	Offset    int
	Limit     int
}

type ProductPatch struct {
	Name        *string
	Description *string
	ImageURL    *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ?", like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinRating != nil {
		q = q.Where("average_rating >= ?", *f.MinRating)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	switch f.Sort {
	case SortPriceAsc:
		q = q.Order("price ASC")
	case SortPriceDesc:
		q = q.Order("price DESC")
	case SortRating:
		q = q.Order("average_rating DESC").Order("total_ratings DESC")
	default:
		q = q.Order("created_at DESC")
	}

	items := make([]models.Product, 0, f.Limit)
	if err := q.Order("id ASC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SearchProducts matches name or description, case-insensitively.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepo) ProductsInCategories(ctx context.Context, categories []string, limit int) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("category IN ?", categories).
		Order("average_rating DESC").Order("id ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateProduct stores the product and its opening price history entry.
func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prod).Error; err != nil {
			return err
		}
		return tx.Create(&models.PriceHistory{ProductID: prod.ID, Price: prod.Price}).Error
	})
}

func (r *GormRepo) CreateProducts(ctx context.Context, prods []models.Product) error {
	if len(prods) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&prods, 100).Error; err != nil {
			return err
		}
		history := make([]models.PriceHistory, 0, len(prods))
		for _, p := range prods {
			history = append(history, models.PriceHistory{ProductID: p.ID, Price: p.Price})
		}
		return tx.CreateInBatches(&history, 100).Error
	})
}

// PatchProduct applies the non-nil fields and appends a price history entry
// when the price actually changes.
func (r *GormRepo) PatchProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", id).First(&prod).Error; err != nil {
			return err
		}

		priceChanged := false
		if patch.Name != nil {
			prod.Name = *patch.Name
		}
		if patch.Description != nil {
			prod.Description = *patch.Description
		}
		if patch.ImageURL != nil {
			prod.ImageURL = *patch.ImageURL
		}
		if patch.Category != nil {
			prod.Category = *patch.Category
		}
		if patch.Stock != nil {
			prod.Stock = *patch.Stock
		}
		if patch.Price != nil && !patch.Price.Equal(prod.Price) {
			prod.Price = *patch.Price
			priceChanged = true
		}

		if err := tx.Model(&prod).Select("name", "description", "image_url", "category", "stock", "price").Updates(&prod).Error; err != nil {
			return err
		}
		if priceChanged {
			return tx.Create(&models.PriceHistory{ProductID: prod.ID, Price: prod.Price}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LatestPrices returns up to n price entries for the product, newest first.
// Entries sharing a date are ordered by id so repeated reads agree.
func (r *GormRepo) LatestPrices(ctx context.Context, productID uuid.UUID, n int) ([]models.PriceHistory, error) {
	var out []models.PriceHistory
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("date DESC").
		Order("id DESC").
		Limit(n).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) AppendPrice(ctx context.Context, entry *models.PriceHistory) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}
