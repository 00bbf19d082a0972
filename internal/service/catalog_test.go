package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/internal/testutil"
	"github.com/Skotchmaster/glowshop/pkg/events"
)

type fakeEngine struct {
	ids     []uuid.UUID
	err     error
	indexed []uuid.UUID
	deleted []uuid.UUID
}

func (f *fakeEngine) Search(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	return int64(len(f.ids)), f.ids, f.err
}

func (f *fakeEngine) Index(_ context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeEngine) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newCatalogService(t *testing.T) (*CatalogService, *repo.GormRepo, *events.Recorder) {
	t.Helper()
	r := testutil.NewRepo(t)
	rec := &events.Recorder{}
	return &CatalogService{Repo: r, Events: rec}, r, rec
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCatalogService_CreatePatchDelete(t *testing.T) {
	t.Parallel()
	svc, r, rec := newCatalogService(t)
	engine := &fakeEngine{}
	svc.Search = engine
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "x", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, ErrValidation)

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Velvet Lipstick", Category: "lips", Price: decimal.RequireFromString("14.00"), Stock: 5})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)

	name := "Velvet Lipstick II"
	patched, err := svc.PatchProduct(ctx, p.ID, repo.ProductPatch{Name: &name, Price: dec("12.00")})
	require.NoError(t, err)
	assert.Equal(t, name, patched.Name)
	assert.Equal(t, 5, patched.Stock)

	stock := 9
	_, err = svc.PatchProduct(ctx, p.ID, repo.ProductPatch{Stock: &stock, Price: dec("12.00")})
	require.NoError(t, err)

	history, err := r.LatestPrices(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	decEqual(t, "12.00", history[0].Price)
	decEqual(t, "14.00", history[1].Price)

	negative := -1
	_, err = svc.PatchProduct(ctx, p.ID, repo.ProductPatch{Stock: &negative})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.PatchProduct(ctx, uuid.New(), repo.ProductPatch{Stock: &stock})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	require.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)
	_, err = svc.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, engine.indexed, 3)
	assert.Equal(t, []uuid.UUID{p.ID}, engine.deleted)
	assert.Equal(t, []string{"product_created", "product_updated", "product_updated", "product_deleted"}, rec.Types())
}

func TestCatalogService_ListProducts_Filters(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCatalogService(t)
	ctx := context.Background()
	testutil.Product(t, r.DB, "Rose Lipstick", "lips", "9.00", 1)
	testutil.Product(t, r.DB, "Nude Lipstick", "lips", "15.00", 1)
	testutil.Product(t, r.DB, "Primer", "primer", "20.00", 1)

	total, items, err := svc.ListProducts(ctx, repo.ProductFilter{Category: "lips", Sort: repo.SortPriceDesc, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Nude Lipstick", items[0].Name)

	total, items, err = svc.ListProducts(ctx, repo.ProductFilter{Query: "LIPSTICK", MaxPrice: dec("10"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Rose Lipstick", items[0].Name)

	total, items, err = svc.ListProducts(ctx, repo.ProductFilter{Sort: repo.SortPriceAsc, Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Nude Lipstick", items[0].Name)

	_, _, err = svc.ListProducts(ctx, repo.ProductFilter{MinPrice: dec("10"), MaxPrice: dec("5"), Limit: 10})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalogService_SearchProducts(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCatalogService(t)
	ctx := context.Background()
	a := testutil.Product(t, r.DB, "Glow Serum", "skincare", "30.00", 1)
	b := testutil.Product(t, r.DB, "Glow Drops", "skincare", "25.00", 1)
	testutil.Product(t, r.DB, "Matte Powder", "face", "12.00", 1)

	total, items, err := svc.SearchProducts(ctx, "glow", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	// engine order is kept and unknown ids are dropped
	svc.Search = &fakeEngine{ids: []uuid.UUID{b.ID, uuid.New(), a.ID}}
	_, items, err = svc.SearchProducts(ctx, "glow", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	svc.Search = &fakeEngine{err: errors.New("cluster red")}
	total, _, err = svc.SearchProducts(ctx, "powder", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, items, err = svc.SearchProducts(ctx, "  ", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestCatalogService_ImportProducts(t *testing.T) {
	t.Parallel()
	svc, r, rec := newCatalogService(t)
	ctx := context.Background()

	body := strings.Join([]string{
		"name,description,price,category,stock,imageUrl",
		"Aloe Gel,soothing,7.50,skincare,10,https://img/aloe.png",
		",no name,3.00,skincare,1,",
		"Bad Price,x,abc,skincare,1,",
		"Bad Stock,x,3.00,skincare,-2,",
		"Clay Mask,,11,skincare,,",
	}, "\n")

	n, err := svc.ImportProducts(ctx, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, items, err := svc.ListProducts(ctx, repo.ProductFilter{Sort: repo.SortPriceAsc, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Aloe Gel", items[0].Name)
	assert.Equal(t, "https://img/aloe.png", items[0].ImageURL)
	assert.Equal(t, 0, items[1].Stock)

	history, err := r.LatestPrices(ctx, items[1].ID, 5)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, []string{"products_imported"}, rec.Types())

	_, err = svc.ImportProducts(ctx, strings.NewReader("title,price\nx,1\n"))
	require.ErrorIs(t, err, ErrValidation)
}
