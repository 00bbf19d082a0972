package service

import (
	"context"
	"errors"
	"math"
	"sync"
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

func newCartService(t *testing.T) (*CartService, *repo.GormRepo, *events.Recorder) {
	t.Helper()
	r := testutil.NewRepo(t)
	rec := &events.Recorder{}
	return &CartService{Repo: r, Events: rec}, r, rec
}

func intPtr(v int) *int { return &v }

func decEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCartService_GetCart_NoCartIsEmpty(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	userID := uuid.New()

	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalItems)
	assert.True(t, view.GrandTotal.IsZero())

	var carts int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Count(&carts).Error)
	assert.Zero(t, carts)
}

func TestCartService_AddItem_MergesSameLine(t *testing.T) {
	t.Parallel()
	svc, r, rec := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Silk Foundation", "foundation", "19.99", 10)

	_, err := svc.AddItem(ctx, userID, p.ID, "ivory", intPtr(1))
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, userID, p.ID, "ivory", intPtr(2))
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Qty)
	require.NotNil(t, view.Items[0].ShadeID)
	assert.Equal(t, "ivory", *view.Items[0].ShadeID)
	assert.Equal(t, 3, view.TotalItems)
	decEqual(t, "59.97", view.GrandTotal)
	assert.Equal(t, []string{"cart_item_added", "cart_item_added"}, rec.Types())
}

func TestCartService_AddItem_ShadesAreSeparateLines(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Lip Tint", "lips", "5.00", 10)

	_, err := svc.AddItem(ctx, userID, p.ID, "", nil)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, userID, p.ID, "rose", intPtr(0))
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Nil(t, view.Items[0].ShadeID)
	assert.Equal(t, 1, view.Items[0].Qty)
	assert.Equal(t, 1, view.Items[1].Qty)
	assert.Equal(t, 2, view.TotalItems)
}

func TestCartService_AddItem_Errors(t *testing.T) {
	t.Parallel()
	svc, _, rec := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, uuid.New(), uuid.Nil, "", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, uuid.New(), uuid.New(), "", nil)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, rec.Events())
}

func TestCartService_AddItem_QuantityLimit(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Cushion Compact", "foundation", "2.00", 10)

	_, err := svc.AddItem(ctx, userID, p.ID, "a", intPtr(math.MaxInt64))
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, userID, p.ID, "a", intPtr(models.MaxLineQty))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, p.ID, "a", intPtr(5))
	require.ErrorIs(t, err, ErrValidation)

	view, err := svc.AddItem(ctx, userID, p.ID, "b", intPtr(models.MaxLineQty))
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	for _, line := range view.Items {
		assert.Equal(t, models.MaxLineQty, line.Qty)
	}
	assert.Equal(t, 2*models.MaxLineQty, view.TotalItems)
	decEqual(t, "8589934588", view.GrandTotal)

	_, err = svc.UpdateItemQuantity(ctx, userID, view.Items[0].ID, float64(models.MaxLineQty)+1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCartService_AddItem_ConcurrentIncrements(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Primer", "primer", "12.00", 10)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, userID, p.ID, "", intPtr(1)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, workers, view.Items[0].Qty)
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Loose Powder", "loose_powder", "8.50", 10)

	view, err := svc.AddItem(ctx, userID, p.ID, "", intPtr(2))
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = svc.UpdateItemQuantity(ctx, userID, itemID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Qty)
	decEqual(t, "42.50", view.GrandTotal)

	for _, bad := range []float64{-1, 1.5} {
		_, err = svc.UpdateItemQuantity(ctx, userID, itemID, bad)
		require.ErrorIs(t, err, ErrValidation)
	}

	view, err = svc.UpdateItemQuantity(ctx, userID, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	view, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_UpdateItemQuantity_UnknownItem(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()
	p := testutil.Product(t, r.DB, "Blush", "cheeks", "9.00", 10)

	_, err := svc.AddItem(ctx, userID, p.ID, "", intPtr(2))
	require.NoError(t, err)
	foreign, err := svc.AddItem(ctx, other, p.ID, "", intPtr(1))
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, userID, uuid.New(), 4)
	require.ErrorIs(t, err, ErrNotFound)

	// another user's line is not reachable either
	_, err = svc.UpdateItemQuantity(ctx, userID, foreign.Items[0].ID, 4)
	require.ErrorIs(t, err, ErrNotFound)

	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Qty)
}

func TestCartService_TotalsFollowLivePrices(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	a := testutil.Product(t, r.DB, "Mascara", "eyes", "10.00", 10)
	b := testutil.Product(t, r.DB, "Liner", "eyes", "4.25", 10)

	_, err := svc.AddItem(ctx, userID, a.ID, "", intPtr(2))
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, userID, b.ID, "", intPtr(4))
	require.NoError(t, err)
	decEqual(t, "37.00", view.GrandTotal)

	require.NoError(t, r.DB.Model(&models.Product{}).Where("id = ?", a.ID).
		Update("price", decimal.RequireFromString("11.50")).Error)

	view, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)
	sum := 0
	for _, l := range view.Items {
		sum += l.Qty
	}
	assert.Equal(t, sum, view.TotalItems)
	decEqual(t, "40.00", view.GrandTotal)
}

func TestCartService_DeletedProductKeepsLine(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Gloss", "lips", "6.00", 10)

	_, err := svc.AddItem(ctx, userID, p.ID, "", intPtr(3))
	require.NoError(t, err)
	require.NoError(t, r.DeleteProduct(ctx, p.ID))

	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
	assert.Equal(t, 3, view.TotalItems)
	assert.Equal(t, 1, view.UnavailableItems)
	assert.True(t, view.GrandTotal.IsZero())
}

func TestCartService_RemoveAndClear(t *testing.T) {
	t.Parallel()
	svc, r, rec := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	a := testutil.Product(t, r.DB, "Serum", "skincare", "30.00", 10)
	b := testutil.Product(t, r.DB, "Toner", "skincare", "15.00", 10)

	_, err := svc.AddItem(ctx, userID, a.ID, "", nil)
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, userID, b.ID, "", nil)
	require.NoError(t, err)

	view, err = svc.RemoveItem(ctx, userID, view.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, b.ID, view.Items[0].ProductID)

	_, err = svc.RemoveItem(ctx, userID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	view, err = svc.ClearCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	view, err = svc.ClearCart(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	assert.Contains(t, rec.Types(), "cart_cleared")
}

func TestCartService_Recommend(t *testing.T) {
	t.Parallel()
	svc, r, _ := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	foundation := testutil.Product(t, r.DB, "Matte Foundation", "foundation", "25.00", 10)
	spray := testutil.Product(t, r.DB, "Setting Spray", "setting_spray", "14.00", 10)
	primer := testutil.Product(t, r.DB, "Pore Primer", "primer", "18.00", 10)
	testutil.Product(t, r.DB, "Lipstick", "lips", "9.00", 10)

	recs, err := svc.Recommend(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = svc.AddItem(ctx, userID, foundation.ID, "", nil)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, primer.ID, "", nil)
	require.NoError(t, err)

	recs, err = svc.Recommend(ctx, userID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, spray.ID, recs[0].ProductID)
	assert.Equal(t, "pairs_with_foundation", recs[0].Reason)
	assert.InDelta(t, 0.8, recs[0].Confidence, 1e-9)
}

func TestCartService_EventFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()
	svc, r, rec := newCartService(t)
	rec.Err = errors.New("broker down")
	p := testutil.Product(t, r.DB, "Bronzer", "cheeks", "11.00", 10)

	view, err := svc.AddItem(context.Background(), uuid.New(), p.ID, "", nil)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}
