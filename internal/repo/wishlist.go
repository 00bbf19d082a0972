package repo

import (
	"context"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ensureWishlist(tx *gorm.DB, userID uuid.UUID) (*models.Wishlist, error) {
	fresh := models.Wishlist{UserID: userID, NotifyPriceDrop: true, NotifyRestock: true}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var wl models.Wishlist
	if err := tx.Where("user_id = ?", userID).First(&wl).Error; err != nil {
		return nil, err
	}
	return &wl, nil
}

func (r *GormRepo) GetWishlist(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	var wl models.Wishlist
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC").Order("id ASC")
		}).
		Where("user_id = ?", userID).
		First(&wl).Error; err != nil {
		return nil, err
	}
	return &wl, nil
}

// ToggleWishlistItem removes the (product, shade) entry when present and adds it
// otherwise. With allowAdd false a missing entry yields gorm.ErrRecordNotFound.
func (r *GormRepo) ToggleWishlistItem(ctx context.Context, userID, productID uuid.UUID, shadeID string, allowAdd bool) (bool, error) {
	added := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wl, err := ensureWishlist(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Where("wishlist_id = ? AND product_id = ? AND shade_id = ?", wl.ID, productID, shadeID).
			Delete(&models.WishlistItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		if !allowAdd {
			return gorm.ErrRecordNotFound
		}
		added = true
		return tx.Create(&models.WishlistItem{
			WishlistID: wl.ID,
			ProductID:  productID,
			ShadeID:    shadeID,
		}).Error
	})
	return added, err
}

func (r *GormRepo) SetWishlistNotify(ctx context.Context, userID uuid.UUID, priceDrop, restock *bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wl, err := ensureWishlist(tx, userID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if priceDrop != nil {
			updates["notify_price_drop"] = *priceDrop
		}
		if restock != nil {
			updates["notify_restock"] = *restock
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Wishlist{}).Where("id = ?", wl.ID).Updates(updates).Error
	})
}
