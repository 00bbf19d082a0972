package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderTotals struct {
	Orders  int64
	Revenue decimal.Decimal
}

type ProductQuantity struct {
	ProductID uuid.UUID
	Qty       int64
}

type OrderStamp struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", itemsInOrder).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.DB.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := r.DB.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetOrder(ctx, id)
}

func (r *GormRepo) OrderTotals(ctx context.Context) (OrderTotals, error) {
	var row struct {
		Orders  int64
		Revenue decimal.NullDecimal
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS orders, SUM(total_amount) AS revenue").
		Scan(&row).Error; err != nil {
		return OrderTotals{}, err
	}
	return OrderTotals{Orders: row.Orders, Revenue: row.Revenue.Decimal}, nil
}

func (r *GormRepo) TopOrderedProducts(ctx context.Context, limit int) ([]ProductQuantity, error) {
	var rows []ProductQuantity
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("product_id, SUM(quantity) AS qty").
		Group("product_id").
		Order("qty DESC").Order("product_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// OrderStamps streams (createdAt, totalAmount) pairs for every order.
func (r *GormRepo) OrderStamps(ctx context.Context, fn func(OrderStamp) error) error {
	rows, err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total_amount").
		Order("created_at ASC").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s OrderStamp
		if err := r.DB.ScanRows(rows, &s); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return rows.Err()
}
