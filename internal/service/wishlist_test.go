package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/internal/testutil"
	"github.com/Skotchmaster/glowshop/pkg/events"
)

func newWishlistService(t *testing.T) (*WishlistService, *repo.GormRepo) {
	t.Helper()
	r := testutil.NewRepo(t)
	return &WishlistService{Repo: r, Events: &events.Recorder{}}, r
}

func boolPtr(v bool) *bool { return &v }

func TestWishlistService_Toggle(t *testing.T) {
	t.Parallel()
	svc, r := newWishlistService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Eye Cream", "skincare", "22.00", 0)

	added, err := svc.Toggle(ctx, userID, p.ID, "")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Toggle(ctx, userID, p.ID, "sand")
	require.NoError(t, err)
	assert.True(t, added)

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Nil(t, view.Items[0].ShadeID)
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "Eye Cream", view.Items[0].Product.Name)
	assert.True(t, view.Notify.PriceDrop)
	assert.True(t, view.Notify.Restock)

	added, err = svc.Toggle(ctx, userID, p.ID, "")
	require.NoError(t, err)
	assert.False(t, added)

	view, err = svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.NotNil(t, view.Items[0].ShadeID)
	assert.Equal(t, "sand", *view.Items[0].ShadeID)

	rec := svc.Events.(*events.Recorder)
	assert.Equal(t, []string{"wishlist_item_added", "wishlist_item_added", "wishlist_item_removed"}, rec.Types())
	for _, ev := range rec.Events() {
		assert.Equal(t, events.TopicWishlist, ev.Topic)
		assert.Equal(t, userID.String(), ev.Key)
	}
}

func TestWishlistService_Toggle_DeletedProduct(t *testing.T) {
	t.Parallel()
	svc, r := newWishlistService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := testutil.Product(t, r.DB, "Old Palette", "eyes", "30.00", 1)

	_, err := svc.Toggle(ctx, userID, uuid.New(), "")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Toggle(ctx, userID, uuid.Nil, "")
	require.ErrorIs(t, err, ErrValidation)

	added, err := svc.Toggle(ctx, userID, p.ID, "")
	require.NoError(t, err)
	require.True(t, added)
	require.NoError(t, r.DeleteProduct(ctx, p.ID))

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)

	added, err = svc.Toggle(ctx, userID, p.ID, "")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestWishlistService_List_Empty(t *testing.T) {
	t.Parallel()
	svc, _ := newWishlistService(t)

	view, err := svc.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Notify.PriceDrop)
	assert.True(t, view.Notify.Restock)
}

func TestWishlistService_SetNotify(t *testing.T) {
	t.Parallel()
	svc, _ := newWishlistService(t)
	ctx := context.Background()
	userID := uuid.New()

	prefs, err := svc.SetNotify(ctx, userID, boolPtr(false), nil)
	require.NoError(t, err)
	assert.False(t, prefs.PriceDrop)
	assert.True(t, prefs.Restock)

	prefs, err = svc.SetNotify(ctx, userID, nil, boolPtr(false))
	require.NoError(t, err)
	assert.False(t, prefs.PriceDrop)
	assert.False(t, prefs.Restock)
}

func TestWishlistService_Alerts(t *testing.T) {
	t.Parallel()
	svc, r := newWishlistService(t)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Now().Add(time.Hour)

	dropped := testutil.Product(t, r.DB, "Dropped", "face", "30.00", 0)
	testutil.PriceAt(t, r.DB, dropped.ID, "25.00", base.Add(time.Minute))

	both := testutil.Product(t, r.DB, "Both", "face", "18.00", 3)
	testutil.PriceAt(t, r.DB, both.ID, "15.00", base.Add(2*time.Minute))

	raised := testutil.Product(t, r.DB, "Raised", "face", "10.00", 0)
	testutil.PriceAt(t, r.DB, raised.ID, "12.00", base.Add(3*time.Minute))

	for _, p := range []models.Product{dropped, both, raised} {
		_, err := svc.Toggle(ctx, userID, p.ID, "")
		require.NoError(t, err)
	}

	alerts, err := svc.Alerts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	assert.Equal(t, AlertPriceDrop, alerts[0].Type)
	assert.Equal(t, dropped.ID, alerts[0].ProductID)
	decEqual(t, "30.00", *alerts[0].From)
	decEqual(t, "25.00", *alerts[0].To)

	assert.Equal(t, AlertPriceDrop, alerts[1].Type)
	assert.Equal(t, both.ID, alerts[1].ProductID)
	assert.Equal(t, AlertRestock, alerts[2].Type)
	assert.Equal(t, both.ID, alerts[2].ProductID)
	assert.Equal(t, 3, *alerts[2].Stock)

	_, err = svc.SetNotify(ctx, userID, boolPtr(false), nil)
	require.NoError(t, err)
	alerts, err = svc.Alerts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertRestock, alerts[0].Type)

	_, err = svc.SetNotify(ctx, userID, nil, boolPtr(false))
	require.NoError(t, err)
	alerts, err = svc.Alerts(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
