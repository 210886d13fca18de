package repository

import (
	"context"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// CartRepository persists the guest cart under the cartItems key
type CartRepository interface {
	Load(ctx context.Context) ([]model.CartLine, error)
	Save(ctx context.Context, lines []model.CartLine) error
	Delete(ctx context.Context) error
}

type cartRepository struct {
	store kvstore.Store
}

func NewCartRepository(store kvstore.Store) CartRepository {
	return &cartRepository{store: store}
}

// Load returns the stored lines with quantities normalized.
// Missing or corrupt values yield an empty cart; corrupt values are removed.
func (r *cartRepository) Load(ctx context.Context) ([]model.CartLine, error) {
	logger.Debug("Loading cart items from store", nil)

	var lines []model.CartLine
	if err := readDocument(ctx, r.store, kvstore.KeyCartItems, &lines); err != nil {
		if isAbsent(err) {
			return []model.CartLine{}, nil
		}
		logger.Error("Failed to load cart items from store", err, nil)
		return nil, err
	}

	out := make([]model.CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Normalized())
	}

	logger.Debug("Cart items loaded from store", map[string]interface{}{
		"count": len(out),
	})
	return out, nil
}

func (r *cartRepository) Save(ctx context.Context, lines []model.CartLine) error {
	logger.Debug("Saving cart items to store", map[string]interface{}{
		"count": len(lines),
	})

	if lines == nil {
		lines = []model.CartLine{}
	}
	if err := writeDocument(ctx, r.store, kvstore.KeyCartItems, lines); err != nil {
		logger.Error("Failed to save cart items to store", err, nil)
		return err
	}
	return nil
}

// Delete removes the key entirely rather than storing an empty list
func (r *cartRepository) Delete(ctx context.Context) error {
	logger.Debug("Deleting cart items from store", nil)

	if err := r.store.Remove(ctx, kvstore.KeyCartItems); err != nil {
		logger.Error("Failed to delete cart items from store", err, nil)
		return err
	}
	return nil
}
