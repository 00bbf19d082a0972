package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/pkg/events"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

const (
	exportBatchSize = 500
	exportTimeFmt   = "2006-01-02T15:04:05.000Z07:00"
)

var ExportHeader = []string{"userId", "itemId", "itemType", "rating", "createdAt"}

type importRow struct {
	userID    uuid.UUID
	itemID    string
	productID uuid.UUID
	itemType  string
	rating    int
	createdAt *time.Time
}

// parseImportRow applies the import coercions: ratings are rounded and clamped
// to 1..5, anything but "diary" is a product, and an unreadable createdAt is ignored.
func parseImportRow(t *csvTable, rec []string) (importRow, bool) {
	var row importRow

	uid, err := uuid.Parse(t.get(rec, "userId"))
	if err != nil {
		return row, false
	}
	row.userID = uid

	value, err := strconv.ParseFloat(t.get(rec, "rating"), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return row, false
	}
	row.rating = int(math.Max(1, math.Min(5, math.Round(value))))

	row.itemType = models.ItemTypeProduct
	if t.get(rec, "itemType") == models.ItemTypeDiary {
		row.itemType = models.ItemTypeDiary
	}

	itemID, productID, err := normalizeItem(row.itemType, t.get(rec, "itemId"))
	if err != nil {
		return row, false
	}
	row.itemID, row.productID = itemID, productID

	if raw := t.get(rec, "createdAt"); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			utc := ts.UTC()
			row.createdAt = &utc
		}
	}
	return row, true
}

// ImportRatings applies each valid CSV row in file order as upsert followed by
// aggregate refresh, so the last duplicate row wins. Rows that fail to parse or
// write are skipped; the count of written rows is returned.
func (s *RatingService) ImportRatings(ctx context.Context, r io.Reader) (int, error) {
	l := logging.FromContext(ctx).With("op", "ratings_import")

	table, err := newCSVTable(r, "userId", "itemId", "rating")
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	imported, skipped := 0, 0
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		rec, bad, err := table.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, err
		}
		line++
		if bad {
			skipped++
			continue
		}

		row, ok := parseImportRow(table, rec)
		if !ok {
			skipped++
			continue
		}

		rt := &models.Rating{
			UserID:   row.userID,
			ItemID:   row.itemID,
			ItemType: row.itemType,
			Rating:   row.rating,
		}
		update := []string{"rating", "updated_at"}
		if row.createdAt != nil {
			rt.CreatedAt = *row.createdAt
			update = append(update, "created_at")
		}

		if err := s.Repo.UpsertRating(ctx, rt, update); err != nil {
			l.Warn("rating_row_write_failed", "line", line, "error", err)
			skipped++
			continue
		}
		imported++

		if _, err := s.refresh(ctx, row.itemType, row.itemID, row.productID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("rating_aggregate_refresh_failed", "line", line, "item_id", row.itemID, "error", err)
		}
	}

	l.Info("ratings_imported", "imported", imported, "skipped", skipped)
	events.Emit(ctx, s.Events, events.TopicRating, "import", "ratings_imported", map[string]any{
		"imported": imported,
		"skipped":  skipped,
	})
	return imported, nil
}

// ExportRatings writes every rating as CSV in the import format.
func (s *RatingService) ExportRatings(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}

	err := s.Repo.EachRatingBatch(ctx, exportBatchSize, func(batch []models.Rating) error {
		for _, rt := range batch {
			if err := cw.Write([]string{
				rt.UserID.String(),
				rt.ItemID,
				rt.ItemType,
				strconv.Itoa(rt.Rating),
				rt.CreatedAt.UTC().Format(exportTimeFmt),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
