package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGuestCart(t *testing.T, f *fixture, lines ...model.CartLine) {
	t.Helper()
	require.NoError(t, f.localCart.Save(context.Background(), lines))
}

func TestMigrationService_CartHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedGuestCart(t, f,
		model.CartLine{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(10)},
		model.CartLine{ProductID: 1, VariantID: int64Ptr(3), Quantity: 1},
		model.CartLine{ProductID: 2, Quantity: 5},
	)

	report := f.migration.MigrateGuestData(ctx, 11)

	adds := f.serverCart.callsOf("add")
	require.Len(t, adds, 3)
	for _, c := range adds {
		assert.Equal(t, int64(11), c.UserID)
		assert.NotEmpty(t, c.IdempotencyKey)
	}
	assert.Equal(t, 2, adds[0].Request.Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(adds[0].Request.Price))
	assert.Equal(t, int64(3), *adds[1].Request.VariantID)

	assert.Equal(t, 3, report.CartMigrated())
	assert.Equal(t, 0, report.CartFailed())
	assert.True(t, report.Complete())

	_, ok := f.raw(t, kvstore.KeyCartItems)
	assert.False(t, ok, "guest cart key is deleted after a full migration")
}

func TestMigrationService_CartPartialFailureKeepsFailedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedGuestCart(t, f,
		model.CartLine{ProductID: 1, Quantity: 1},
		model.CartLine{ProductID: 2, Quantity: 2},
		model.CartLine{ProductID: 3, Quantity: 3},
	)
	f.serverCart.failProducts[2] = true

	report := f.migration.MigrateGuestData(ctx, 11)

	assert.Len(t, f.serverCart.callsOf("add"), 3, "a failure does not stop the loop")
	assert.Equal(t, 2, report.CartMigrated())
	assert.Equal(t, 1, report.CartFailed())
	assert.False(t, report.Complete())
	assert.Equal(t, errUpstream.Error(), report.Cart[1].Error)

	remaining, err := f.localCart.Load(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(2), remaining[0].ProductID)
	assert.Equal(t, 2, remaining[0].Quantity)

	firstKey := f.serverCart.callsOf("add")[1].IdempotencyKey

	// a later retry sends the same key for the same line
	delete(f.serverCart.failProducts, 2)
	retry := f.migration.MigrateGuestData(ctx, 11)
	assert.True(t, retry.Complete())
	adds := f.serverCart.callsOf("add")
	require.Len(t, adds, 4)
	assert.Equal(t, firstKey, adds[3].IdempotencyKey)

	_, ok := f.raw(t, kvstore.KeyCartItems)
	assert.False(t, ok)
}

func TestMigrationService_IdempotencyKeysDifferPerUserAndLine(t *testing.T) {
	line := model.CartLine{ProductID: 1, Quantity: 1}
	assert.Equal(t, cartIdempotencyKey(1, line), cartIdempotencyKey(1, line))
	assert.NotEqual(t, cartIdempotencyKey(1, line), cartIdempotencyKey(2, line))
	assert.NotEqual(t, cartIdempotencyKey(1, line), cartIdempotencyKey(1, model.CartLine{ProductID: 1, VariantID: int64Ptr(1), Quantity: 1}))
}

func TestMigrationService_WishlistOnlyGuestEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.localWishlist.Save(ctx, []model.WishlistEntry{
		{WishlistID: "guest-1", ProductID: 1, CreatedAt: created},
		{WishlistID: "88", ProductID: 2},
		{WishlistID: "guest-2", ProductID: 3, VariantID: int64Ptr(4)},
	}))

	report := f.migration.MigrateGuestData(ctx, 6)

	require.Len(t, f.serverWishlist.created, 2)
	assert.Equal(t, int64(1), f.serverWishlist.created[0].ProductID)
	assert.True(t, f.serverWishlist.created[0].CreatedAt.Equal(created))
	assert.Equal(t, int64(6), f.serverWishlist.created[0].UserID)
	assert.Equal(t, int64(3), f.serverWishlist.created[1].ProductID)
	assert.Equal(t, 2, report.WishlistMigrated())
	assert.Equal(t, 1, report.SkippedWishlist)

	stored, err := f.localWishlist.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "88", stored[0].WishlistID.String())
}

func TestMigrationService_WishlistNotMigratedTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.localWishlist.Save(ctx, []model.WishlistEntry{{WishlistID: "guest-1", ProductID: 1}}))

	f.migration.MigrateGuestData(ctx, 6)
	second := f.migration.MigrateGuestData(ctx, 6)

	assert.Len(t, f.serverWishlist.created, 1)
	assert.Empty(t, second.Wishlist)
	_, ok := f.raw(t, kvstore.KeyWishlistItems)
	assert.False(t, ok)
}

func TestMigrationService_WishlistPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.localWishlist.Save(ctx, []model.WishlistEntry{
		{WishlistID: "guest-1", ProductID: 1},
		{WishlistID: "guest-2", ProductID: 2},
	}))
	f.serverWishlist.failProducts[2] = true

	report := f.migration.MigrateGuestData(ctx, 6)
	assert.Equal(t, 1, report.WishlistMigrated())
	assert.Equal(t, 1, report.WishlistFailed())

	stored, err := f.localWishlist.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "guest-2", stored[0].WishlistID.String())
}

func TestMigrationService_EmptyGuestState(t *testing.T) {
	f := newFixture(t)

	report := f.migration.MigrateGuestData(context.Background(), 6)

	assert.True(t, report.Complete())
	assert.Empty(t, report.Cart)
	assert.Empty(t, report.Wishlist)
	assert.Empty(t, f.serverCart.callsOf("add"))
}

func TestMigrationService_Pending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedGuestCart(t, f, model.CartLine{ProductID: 1, Quantity: 1}, model.CartLine{ProductID: 2, Quantity: 1})
	require.NoError(t, f.localWishlist.Save(ctx, []model.WishlistEntry{
		{WishlistID: "guest-1", ProductID: 1},
		{WishlistID: "9", ProductID: 2},
	}))

	lines, entries, err := f.migration.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lines)
	assert.Equal(t, 1, entries)
}
