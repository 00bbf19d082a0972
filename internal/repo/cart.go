package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrLineQtyLimit = errors.New("cart line quantity limit exceeded")

// ensureCart is the single get-or-create path for carts. Concurrent callers
// converge on one row through the unique user_id index.
func ensureCart(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	fresh := models.Cart{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func touchCart(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", tx.NowFunc()).Error
}

func userCartIDs(tx *gorm.DB, userID uuid.UUID) *gorm.DB {
	return tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
}

// GetCart never creates a cart; gorm.ErrRecordNotFound means the user has none yet.
func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartItem inserts the line or increments the existing (product, shade) line
// atomically. An increment that would take the line past models.MaxLineQty
// leaves it unchanged and yields ErrLineQtyLimit.
func (r *GormRepo) AddCartItem(ctx context.Context, userID, productID uuid.UUID, shadeID string, qty int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}

		item := models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			ShadeID:   shadeID,
			Quantity:  qty,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}, {Name: "shade_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"qty": gorm.Expr("cart_items.qty + excluded.qty"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("cart_items.qty <= ? - excluded.qty", models.MaxLineQty),
			}},
		}).Create(&item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLineQtyLimit
		}
		return touchCart(tx, cart.ID)
	})
}

// SetCartItemQuantity sets qty exactly; qty 0 deletes the line. An item that is
// not in the user's cart yields gorm.ErrRecordNotFound.
func (r *GormRepo) SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) error {
	if qty == 0 {
		return r.DeleteCartItem(ctx, userID, itemID)
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND cart_id IN (?)", itemID, userCartIDs(tx, userID)).
			Update("qty", qty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	db := r.DB.WithContext(ctx)
	res := db.Where("id = ? AND cart_id IN (?)", itemID, userCartIDs(db, userID)).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearCart empties the cart, creating it first when the user has none.
func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cart.ID)
	})
}
