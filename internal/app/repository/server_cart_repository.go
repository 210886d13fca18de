package repository

import (
	"context"
	"fmt"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// AddCartItemRequest is the body of POST cart/{userId}/items
type AddCartItemRequest struct {
	ProductID int64           `json:"productId"`
	VariantID *int64          `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func NewAddCartItemRequest(line model.CartLine) AddCartItemRequest {
	return AddCartItemRequest{
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		Price:     line.Price,
	}
}

// ServerCartRepository talks to the server-side cart of an authenticated user
type ServerCartRepository interface {
	Fetch(ctx context.Context, userID int64) ([]model.CartLine, error)
	AddItem(ctx context.Context, userID int64, req AddCartItemRequest, idempotencyKey string) error
	RemoveProduct(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type serverCartRepository struct {
	client APIClient
}

func NewServerCartRepository(client APIClient) ServerCartRepository {
	return &serverCartRepository{client: client}
}

func (r *serverCartRepository) Fetch(ctx context.Context, userID int64) ([]model.CartLine, error) {
	logger.Debug("Fetching server cart", map[string]interface{}{
		"user_id": userID,
	})

	resp, err := r.client.Get(ctx, fmt.Sprintf("cart/%d", userID), nil)
	if err != nil {
		return nil, err
	}

	var lines []model.CartLine
	if err := decodeList(resp.Data, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode server cart: %w", err)
	}

	out := make([]model.CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Normalized())
	}

	logger.Debug("Server cart fetched", map[string]interface{}{
		"user_id": userID,
		"count":   len(out),
	})
	return out, nil
}

func (r *serverCartRepository) AddItem(ctx context.Context, userID int64, req AddCartItemRequest, idempotencyKey string) error {
	logger.Debug("Adding item to server cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	_, err := r.client.Post(ctx, fmt.Sprintf("cart/%d/items", userID), req, idempotencyHeader(idempotencyKey))
	return err
}

func (r *serverCartRepository) RemoveProduct(ctx context.Context, userID, productID int64) error {
	logger.Debug("Removing product from server cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	_, err := r.client.Delete(ctx, fmt.Sprintf("cart/%d/items/%d", userID, productID), nil)
	return err
}

func (r *serverCartRepository) Clear(ctx context.Context, userID int64) error {
	logger.Debug("Clearing server cart", map[string]interface{}{
		"user_id": userID,
	})

	_, err := r.client.Delete(ctx, fmt.Sprintf("cart/%d", userID), nil)
	return err
}
