package repository

import (
	"context"
	"fmt"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// CreateOrderRequest is the body of POST orders
type CreateOrderRequest struct {
	UserID        int64                `json:"userId"`
	Items         []AddCartItemRequest `json:"items"`
	Address       *model.Address       `json:"address"`
	PaymentMethod string               `json:"paymentMethod"`
}

type OrderRepository interface {
	Create(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*model.OrderConfirmation, error)
}

type orderRepository struct {
	client APIClient
}

func NewOrderRepository(client APIClient) OrderRepository {
	return &orderRepository{client: client}
}

func (r *orderRepository) Create(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*model.OrderConfirmation, error) {
	logger.Debug("Creating order", map[string]interface{}{
		"user_id": req.UserID,
		"items":   len(req.Items),
	})

	resp, err := r.client.Post(ctx, "orders", req, idempotencyHeader(idempotencyKey))
	if err != nil {
		return nil, err
	}

	var confirmation model.OrderConfirmation
	if err := decodeObject(resp.Data, &confirmation); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &confirmation, nil
}
