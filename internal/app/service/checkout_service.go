package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

var (
	ErrEmptySelection        = errors.New("no cart lines selected for checkout")
	ErrSelectionLineNotFound = errors.New("line is not part of the checkout selection")
	ErrAddressRequired       = errors.New("a delivery address is required")
	ErrInvalidAddress        = errors.New("address requires line1 and city")
	ErrAuthRequired          = errors.New("an authenticated session is required")
	ErrPaymentMethodRequired = errors.New("payment method is required")
)

type CheckoutService interface {
	Select(ctx context.Context, productIDs []int64) ([]model.CartLine, error)
	Selection(ctx context.Context) ([]model.CartLine, error)
	Increment(ctx context.Context, productID int64, variantID *int64) ([]model.CartLine, error)
	Decrement(ctx context.Context, productID int64, variantID *int64) ([]model.CartLine, error)
	SetAddress(ctx context.Context, addr *model.Address) error
	Address(ctx context.Context) (*model.Address, error)
	Summary(ctx context.Context) (model.CartSummary, error)
	PlaceOrder(ctx context.Context, paymentMethod string) (*model.OrderConfirmation, error)
}

// checkoutService works on a snapshot of the cart; quantity changes never reach the live cart
type checkoutService struct {
	checkout repository.CheckoutRepository
	orders   repository.OrderRepository
	cart     CartService
	sessions SessionReader
}

func NewCheckoutService(
	checkout repository.CheckoutRepository,
	orders repository.OrderRepository,
	cart CartService,
	sessions SessionReader,
) CheckoutService {
	return &checkoutService{
		checkout: checkout,
		orders:   orders,
		cart:     cart,
		sessions: sessions,
	}
}

// Select copies the cart lines of the given products into the selection; no ids selects the whole cart
func (s *checkoutService) Select(ctx context.Context, productIDs []int64) ([]model.CartLine, error) {
	wanted := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}

	var selected []model.CartLine
	for _, l := range s.cart.Items(ctx) {
		if len(wanted) == 0 || wanted[l.ProductID] {
			selected = append(selected, l)
		}
	}
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	if err := s.checkout.SaveSelection(ctx, selected); err != nil {
		logger.Error("Failed to save checkout selection", err, nil)
		return nil, err
	}

	logger.Info("Checkout selection saved", map[string]interface{}{
		"count": len(selected),
	})
	return selected, nil
}

func (s *checkoutService) Selection(ctx context.Context) ([]model.CartLine, error) {
	return s.checkout.LoadSelection(ctx)
}

func (s *checkoutService) Increment(ctx context.Context, productID int64, variantID *int64) ([]model.CartLine, error) {
	return s.step(ctx, productID, variantID, 1)
}

// Decrement lowers the quantity by one; at quantity 1 it leaves the line untouched
func (s *checkoutService) Decrement(ctx context.Context, productID int64, variantID *int64) ([]model.CartLine, error) {
	return s.step(ctx, productID, variantID, -1)
}

func (s *checkoutService) step(ctx context.Context, productID int64, variantID *int64, delta int) ([]model.CartLine, error) {
	lines, err := s.checkout.LoadSelection(ctx)
	if err != nil {
		return nil, err
	}

	key := model.NewLineKey(productID, variantID)
	idx := -1
	for i := range lines {
		if lines[i].Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrSelectionLineNotFound
	}

	next := lines[idx].Quantity + delta
	if next < 1 {
		return lines, nil
	}
	lines[idx].Quantity = next

	if err := s.checkout.SaveSelection(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *checkoutService) SetAddress(ctx context.Context, addr *model.Address) error {
	if addr == nil {
		return ErrAddressRequired
	}
	if strings.TrimSpace(addr.Line1) == "" || strings.TrimSpace(addr.City) == "" {
		return ErrInvalidAddress
	}
	return s.checkout.SaveAddress(ctx, addr)
}

func (s *checkoutService) Address(ctx context.Context) (*model.Address, error) {
	return s.checkout.LoadAddress(ctx)
}

func (s *checkoutService) Summary(ctx context.Context) (model.CartSummary, error) {
	lines, err := s.checkout.LoadSelection(ctx)
	if err != nil {
		return model.CartSummary{}, err
	}
	return model.Summarize(lines), nil
}

// PlaceOrder submits the selection. After the order is accepted the cart is cleared
// and the selection removed; failures there are logged since the order already exists.
func (s *checkoutService) PlaceOrder(ctx context.Context, paymentMethod string) (*model.OrderConfirmation, error) {
	user := currentUser(ctx, s.sessions)
	if user == nil {
		return nil, ErrAuthRequired
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return nil, ErrPaymentMethodRequired
	}

	addr, err := s.checkout.LoadAddress(ctx)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, ErrAddressRequired
	}

	lines, err := s.checkout.LoadSelection(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}

	items := make([]repository.AddCartItemRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, repository.NewAddCartItemRequest(l))
	}

	logger.Info("Placing order", map[string]interface{}{
		"user_id":        user.UserID,
		"lines":          len(items),
		"payment_method": paymentMethod,
	})

	confirmation, err := s.orders.Create(ctx, repository.CreateOrderRequest{
		UserID:        user.UserID,
		Items:         items,
		Address:       addr,
		PaymentMethod: paymentMethod,
	}, uuid.NewString())
	if err != nil {
		logger.Error("Failed to place order", err, map[string]interface{}{
			"user_id": user.UserID,
		})
		return nil, err
	}

	if err := s.removeOrdered(ctx, lines); err != nil {
		logger.Warn("Failed to remove ordered lines from cart", map[string]interface{}{
			"order_id": confirmation.OrderID,
			"error":    err.Error(),
		})
	}
	if err := s.checkout.DeleteSelection(ctx); err != nil {
		logger.Warn("Failed to remove checkout selection", map[string]interface{}{
			"order_id": confirmation.OrderID,
			"error":    err.Error(),
		})
	}

	logger.Info("Order placed", map[string]interface{}{
		"user_id":  user.UserID,
		"order_id": confirmation.OrderID,
		"status":   confirmation.Status,
	})
	return confirmation, nil
}

// removeOrdered drops the ordered products from the cart. Unselected lines stay;
// a selection covering every product clears the cart in one call.
func (s *checkoutService) removeOrdered(ctx context.Context, ordered []model.CartLine) error {
	products := make(map[int64]bool, len(ordered))
	for _, l := range ordered {
		products[l.ProductID] = true
	}

	whole := true
	for _, l := range s.cart.Items(ctx) {
		if !products[l.ProductID] {
			whole = false
			break
		}
	}
	if whole {
		return s.cart.ClearCart(ctx)
	}

	for productID := range products {
		if err := s.cart.RemoveFromCart(ctx, productID); err != nil {
			return err
		}
	}
	return nil
}
