package repository

import (
	"context"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// WishlistRepository persists wishlist entries under the wishlistItems key
type WishlistRepository interface {
	Load(ctx context.Context) ([]model.WishlistEntry, error)
	Save(ctx context.Context, entries []model.WishlistEntry) error
	Delete(ctx context.Context) error
}

type wishlistRepository struct {
	store kvstore.Store
}

func NewWishlistRepository(store kvstore.Store) WishlistRepository {
	return &wishlistRepository{store: store}
}

func (r *wishlistRepository) Load(ctx context.Context) ([]model.WishlistEntry, error) {
	logger.Debug("Loading wishlist entries from store", nil)

	var entries []model.WishlistEntry
	if err := readDocument(ctx, r.store, kvstore.KeyWishlistItems, &entries); err != nil {
		if isAbsent(err) {
			return []model.WishlistEntry{}, nil
		}
		logger.Error("Failed to load wishlist entries from store", err, nil)
		return nil, err
	}
	if entries == nil {
		entries = []model.WishlistEntry{}
	}

	logger.Debug("Wishlist entries loaded from store", map[string]interface{}{
		"count": len(entries),
	})
	return entries, nil
}

func (r *wishlistRepository) Save(ctx context.Context, entries []model.WishlistEntry) error {
	logger.Debug("Saving wishlist entries to store", map[string]interface{}{
		"count": len(entries),
	})

	if entries == nil {
		entries = []model.WishlistEntry{}
	}
	if err := writeDocument(ctx, r.store, kvstore.KeyWishlistItems, entries); err != nil {
		logger.Error("Failed to save wishlist entries to store", err, nil)
		return err
	}
	return nil
}

func (r *wishlistRepository) Delete(ctx context.Context) error {
	logger.Debug("Deleting wishlist entries from store", nil)

	if err := r.store.Remove(ctx, kvstore.KeyWishlistItems); err != nil {
		logger.Error("Failed to delete wishlist entries from store", err, nil)
		return err
	}
	return nil
}
