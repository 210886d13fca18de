package repository

import (
	"context"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// CheckoutRepository holds the checkout handoff: a snapshot of selected lines and the delivery address
type CheckoutRepository interface {
	LoadSelection(ctx context.Context) ([]model.CartLine, error)
	SaveSelection(ctx context.Context, lines []model.CartLine) error
	DeleteSelection(ctx context.Context) error
	LoadAddress(ctx context.Context) (*model.Address, error)
	SaveAddress(ctx context.Context, addr *model.Address) error
}

type checkoutRepository struct {
	store kvstore.Store
}

func NewCheckoutRepository(store kvstore.Store) CheckoutRepository {
	return &checkoutRepository{store: store}
}

func (r *checkoutRepository) LoadSelection(ctx context.Context) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := readDocument(ctx, r.store, kvstore.KeySelectedCartItems, &lines); err != nil {
		if isAbsent(err) {
			return []model.CartLine{}, nil
		}
		logger.Error("Failed to load checkout selection", err, nil)
		return nil, err
	}

	out := make([]model.CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Normalized())
	}
	return out, nil
}

func (r *checkoutRepository) SaveSelection(ctx context.Context, lines []model.CartLine) error {
	logger.Debug("Saving checkout selection", map[string]interface{}{
		"count": len(lines),
	})
	if lines == nil {
		lines = []model.CartLine{}
	}
	return writeDocument(ctx, r.store, kvstore.KeySelectedCartItems, lines)
}

func (r *checkoutRepository) DeleteSelection(ctx context.Context) error {
	return r.store.Remove(ctx, kvstore.KeySelectedCartItems)
}

// LoadAddress returns nil when no address has been picked
func (r *checkoutRepository) LoadAddress(ctx context.Context) (*model.Address, error) {
	var addr model.Address
	if err := readDocument(ctx, r.store, kvstore.KeySelectedAddress, &addr); err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

func (r *checkoutRepository) SaveAddress(ctx context.Context, addr *model.Address) error {
	logger.Debug("Saving selected address", map[string]interface{}{
		"address_id": addr.AddressID,
	})
	return writeDocument(ctx, r.store, kvstore.KeySelectedAddress, addr)
}
