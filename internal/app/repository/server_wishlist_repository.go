package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// CreateWishlistRequest is the body of POST wishlist
type CreateWishlistRequest struct {
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	VariantID *int64    `json:"variantId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ServerWishlistRepository interface {
	Fetch(ctx context.Context, userID int64) ([]model.WishlistEntry, error)
	Create(ctx context.Context, req CreateWishlistRequest, idempotencyKey string) (*model.WishlistEntry, error)
	Delete(ctx context.Context, wishlistID model.FlexibleID) error
}

type serverWishlistRepository struct {
	client APIClient
}

func NewServerWishlistRepository(client APIClient) ServerWishlistRepository {
	return &serverWishlistRepository{client: client}
}

func (r *serverWishlistRepository) Fetch(ctx context.Context, userID int64) ([]model.WishlistEntry, error) {
	logger.Debug("Fetching server wishlist", map[string]interface{}{
		"user_id": userID,
	})

	resp, err := r.client.Get(ctx, fmt.Sprintf("wishlist/user/%d", userID), nil)
	if err != nil {
		return nil, err
	}

	var entries []model.WishlistEntry
	if err := decodeList(resp.Data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode server wishlist: %w", err)
	}
	if entries == nil {
		entries = []model.WishlistEntry{}
	}
	return entries, nil
}

// Create posts a new entry. The returned entry falls back to the request fields
// for anything the server leaves out of its response.
func (r *serverWishlistRepository) Create(ctx context.Context, req CreateWishlistRequest, idempotencyKey string) (*model.WishlistEntry, error) {
	logger.Debug("Creating server wishlist entry", map[string]interface{}{
		"user_id":    req.UserID,
		"product_id": req.ProductID,
	})

	resp, err := r.client.Post(ctx, "wishlist", req, idempotencyHeader(idempotencyKey))
	if err != nil {
		return nil, err
	}

	entry := model.WishlistEntry{}
	if err := decodeObject(resp.Data, &entry); err != nil {
		logger.Warn("Unreadable wishlist create response", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if entry.ProductID == 0 {
		entry.ProductID = req.ProductID
		entry.VariantID = req.VariantID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = req.CreatedAt
	}
	return &entry, nil
}

func (r *serverWishlistRepository) Delete(ctx context.Context, wishlistID model.FlexibleID) error {
	logger.Debug("Deleting server wishlist entry", map[string]interface{}{
		"wishlist_id": wishlistID,
	})

	_, err := r.client.Delete(ctx, "wishlist/"+url.PathEscape(wishlistID.String()), nil)
	return err
}
