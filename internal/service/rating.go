package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/pkg/events"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

const maxItemIDLen = 64

type RatingStore interface {
	UpsertRating(ctx context.Context, rt *models.Rating, update []string) error
	RatingAggregate(ctx context.Context, itemType, itemID string) (repo.Aggregate, error)
	RecomputeProductAggregate(ctx context.Context, productID uuid.UUID) (repo.Aggregate, error)
	UserRating(ctx context.Context, userID uuid.UUID, itemType, itemID string) (*models.Rating, error)
	RatingDistribution(ctx context.Context, itemType, itemID string) ([]repo.StarCount, error)
	EachRatingBatch(ctx context.Context, size int, fn func([]models.Rating) error) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type SubmitRatingInput struct {
	ItemID     string
	ItemType   string
	Rating     float64
	ReviewText string
}

type SubmitRatingResult struct {
	UserRating    int     `json:"userRating"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
	// Stale is set when the rating was stored but the aggregate could not be refreshed.
	Stale bool `json:"stale,omitempty"`
}

type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
	UserRating    *int    `json:"userRating"`
}

type RatingDistribution struct {
	Distribution  map[string]int64 `json:"distribution"`
	TotalRatings  int64            `json:"totalRatings"`
	AverageRating float64          `json:"averageRating"`
}

type AggregateResult struct {
	ItemType      string  `json:"itemType"`
	ItemID        string  `json:"itemId"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
}

type RatingService struct {
	Repo   RatingStore
	Events events.Publisher
}

func validItemType(itemType string) error {
	if itemType != models.ItemTypeProduct && itemType != models.ItemTypeDiary {
		return invalid("itemType must be product or diary")
	}
	return nil
}

// normalizeItem validates the (itemType, itemID) pair. Product ids must be UUIDs.
func normalizeItem(itemType, itemID string) (string, uuid.UUID, error) {
	if err := validItemType(itemType); err != nil {
		return "", uuid.Nil, err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", uuid.Nil, invalid("itemId is required")
	}
	if len(itemID) > maxItemIDLen {
		return "", uuid.Nil, invalid("itemId is too long")
	}
	if itemType != models.ItemTypeProduct {
		return itemID, uuid.Nil, nil
	}
	pid, err := uuid.Parse(itemID)
	if err != nil {
		return "", uuid.Nil, invalid("product itemId must be a uuid")
	}
	return pid.String(), pid, nil
}

func validRatingValue(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("rating must be a finite number")
	}
	if v != math.Trunc(v) || v < 1 || v > 5 {
		return 0, invalid("rating must be an integer between 1 and 5")
	}
	return int(v), nil
}

// SubmitRating upserts the caller's rating and refreshes the item aggregate.
// An aggregate failure after a stored rating is logged and reported as stale.
func (s *RatingService) SubmitRating(ctx context.Context, userID uuid.UUID, in SubmitRatingInput) (*SubmitRatingResult, error) {
	itemID, productID, err := normalizeItem(in.ItemType, in.ItemID)
	if err != nil {
		return nil, err
	}
	value, err := validRatingValue(in.Rating)
	if err != nil {
		return nil, err
	}
	if in.ItemType == models.ItemTypeProduct {
		if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
			return nil, notFound(err, "product")
		}
	}

	rt := &models.Rating{
		UserID:     userID,
		ItemID:     itemID,
		ItemType:   in.ItemType,
		Rating:     value,
		ReviewText: strings.TrimSpace(in.ReviewText),
	}
	if err := s.Repo.UpsertRating(ctx, rt, []string{"rating", "review_text", "updated_at"}); err != nil {
		return nil, err
	}

	res := &SubmitRatingResult{UserRating: value}
	agg, err := s.refresh(ctx, in.ItemType, itemID, productID)
	if err != nil {
		logging.FromContext(ctx).Error("rating_aggregate_refresh_failed",
			"item_type", in.ItemType, "item_id", itemID, "error", err)
		res.Stale = true
		if fallback, ferr := s.Repo.RatingAggregate(ctx, in.ItemType, itemID); ferr == nil {
			agg = fallback
		}
	}
	res.AverageRating = agg.Average
	res.TotalRatings = agg.Total

	events.Emit(ctx, s.Events, events.TopicRating, itemID, "rating_submitted", map[string]any{
		"userId":   userID,
		"itemId":   itemID,
		"itemType": in.ItemType,
		"rating":   value,
	})
	return res, nil
}

// refresh recomputes the aggregate from every stored rating. Product aggregates
// are persisted on the product row; diary aggregates are only computed.
func (s *RatingService) refresh(ctx context.Context, itemType, itemID string, productID uuid.UUID) (repo.Aggregate, error) {
	if itemType == models.ItemTypeProduct {
		return s.Repo.RecomputeProductAggregate(ctx, productID)
	}
	return s.Repo.RatingAggregate(ctx, itemType, itemID)
}

func (s *RatingService) GetRating(ctx context.Context, itemType, itemID string, userID *uuid.UUID) (*RatingSummary, error) {
	itemID, _, err := normalizeItem(itemType, itemID)
	if err != nil {
		return nil, err
	}

	agg, err := s.Repo.RatingAggregate(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}
	out := &RatingSummary{AverageRating: agg.Average, TotalRatings: agg.Total}

	if userID != nil {
		own, err := s.Repo.UserRating(ctx, *userID, itemType, itemID)
		switch {
		case err == nil:
			v := own.Rating
			out.UserRating = &v
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return out, nil
}

func (s *RatingService) GetDistribution(ctx context.Context, itemType, itemID string) (*RatingDistribution, error) {
	itemID, _, err := normalizeItem(itemType, itemID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Repo.RatingDistribution(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	out := &RatingDistribution{Distribution: make(map[string]int64, 5)}
	for star := 1; star <= 5; star++ {
		out.Distribution[strconv.Itoa(star)] = 0
	}
	var weighted int64
	for _, r := range rows {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		out.Distribution[strconv.Itoa(r.Rating)] = r.Count
		out.TotalRatings += r.Count
		weighted += int64(r.Rating) * r.Count
	}
	if out.TotalRatings > 0 {
		out.AverageRating = float64(weighted) / float64(out.TotalRatings)
	}
	return out, nil
}

// RecomputeAggregate is the manual repair path for a single item.
func (s *RatingService) RecomputeAggregate(ctx context.Context, itemType, itemID string) (*AggregateResult, error) {
	itemID, productID, err := normalizeItem(itemType, itemID)
	if err != nil {
		return nil, err
	}

	agg, err := s.refresh(ctx, itemType, itemID, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return &AggregateResult{
		ItemType:      itemType,
		ItemID:        itemID,
		AverageRating: agg.Average,
		TotalRatings:  agg.Total,
	}, nil
}
