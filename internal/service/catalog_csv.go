package service

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/pkg/events"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

// ImportProducts bulk-creates products from CSV columns
// name, description, price, category, stock, imageUrl. Invalid rows are skipped.
func (s *CatalogService) ImportProducts(ctx context.Context, r io.Reader) (int, error) {
	l := logging.FromContext(ctx)

	table, err := newCSVTable(r, "name", "price")
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var prods []models.Product
	line := 1
	for {
		rec, skipped, err := table.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		line++
		if skipped {
			l.Debug("product_csv_row_skipped", "line", line, "reason", "malformed")
			continue
		}

		in, ok := productFromRow(table, rec)
		if !ok {
			l.Debug("product_csv_row_skipped", "line", line, "reason", "invalid values")
			continue
		}
		prods = append(prods, models.Product{
			Name:        in.Name,
			Description: in.Description,
			ImageURL:    in.ImageURL,
			Category:    in.Category,
			Price:       in.Price,
			Stock:       in.Stock,
		})
	}

	if err := s.Repo.CreateProducts(ctx, prods); err != nil {
		return 0, err
	}

	for _, p := range prods {
		s.index(ctx, p)
	}
	events.Emit(ctx, s.Events, events.TopicProduct, "bulk", "products_imported", map[string]any{"count": len(prods)})
	return len(prods), nil
}

func productFromRow(t *csvTable, rec []string) (ProductInput, bool) {
	in := ProductInput{
		Name:        t.get(rec, "name"),
		Description: t.get(rec, "description"),
		ImageURL:    t.get(rec, "imageUrl"),
		Category:    t.get(rec, "category"),
	}

	price, err := decimal.NewFromString(t.get(rec, "price"))
	if err != nil {
		return in, false
	}
	in.Price = price

	if raw := t.get(rec, "stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return in, false
		}
		in.Stock = stock
	}

	return in, validateProduct(in) == nil
}
