package repo

import (
	"context"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Aggregate struct {
	Average float64
	Total   int64
}

type StarCount struct {
	Rating int
	Count  int64
}

var ratingKey = []clause.Column{{Name: "user_id"}, {Name: "item_id"}, {Name: "item_type"}}

// UpsertRating inserts the rating or overwrites the listed columns of the
// existing (user, item, itemType) row.
func (r *GormRepo) UpsertRating(ctx context.Context, rt *models.Rating, update []string) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   ratingKey,
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(rt).Error
}

func aggregate(tx *gorm.DB, itemType, itemID string) (Aggregate, error) {
	var agg Aggregate
	err := tx.Model(&models.Rating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Scan(&agg).Error
	return agg, err
}

func (r *GormRepo) RatingAggregate(ctx context.Context, itemType, itemID string) (Aggregate, error) {
	return aggregate(r.DB.WithContext(ctx), itemType, itemID)
}

// RecomputeProductAggregate rebuilds averageRating/totalRatings from the rating
// rows. The product row is locked first so concurrent recomputes serialize.
func (r *GormRepo) RecomputeProductAggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	var agg Aggregate
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := forUpdate(tx).Select("id").Where("id = ?", productID).First(&prod).Error; err != nil {
			return err
		}

		var err error
		agg, err = aggregate(tx, models.ItemTypeProduct, productID.String())
		if err != nil {
			return err
		}

		return tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]any{
			"average_rating": agg.Average,
			"total_ratings":  agg.Total,
		}).Error
	})
	return agg, err
}

func (r *GormRepo) UserRating(ctx context.Context, userID uuid.UUID, itemType, itemID string) (*models.Rating, error) {
	var rt models.Rating
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
		First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *GormRepo) RatingDistribution(ctx context.Context, itemType, itemID string) ([]StarCount, error) {
	var rows []StarCount
	if err := r.DB.WithContext(ctx).Model(&models.Rating{}).
		Select("rating, COUNT(*) AS count").
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Group("rating").
		Order("rating ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) CountRatings(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Rating{}).Count(&n).Error
	return n, err
}

// EachRatingBatch walks the whole ratings table in primary key order.
func (r *GormRepo) EachRatingBatch(ctx context.Context, size int, fn func([]models.Rating) error) error {
	var batch []models.Rating
	return r.DB.WithContext(ctx).FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}
