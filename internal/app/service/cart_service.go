package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

var (
	ErrInvalidCartLine = errors.New("cart line requires a product id")
)

type CartService interface {
	Load(ctx context.Context) error
	Items(ctx context.Context) []model.CartLine
	Summary(ctx context.Context) model.CartSummary
	AddToCart(ctx context.Context, line model.CartLine) error
	RemoveFromCart(ctx context.Context, productID int64) error
	ClearCart(ctx context.Context) error
	SetCartItems(ctx context.Context, lines []model.CartLine) error
	Refresh(ctx context.Context) error
}

// cartService keeps the in-memory cart of the session.
// Guest mode mirrors every change to the key-value store; authenticated mode
// sends it to the server and only updates the in-memory view.
type cartService struct {
	local    repository.CartRepository
	remote   repository.ServerCartRepository
	sessions SessionReader
	notifier Notifier

	// writeMu serializes mutations end to end, storage and network included
	writeMu sync.Mutex
	loaded  bool

	viewMu sync.RWMutex
	items  []model.CartLine
}

func NewCartService(
	local repository.CartRepository,
	remote repository.ServerCartRepository,
	sessions SessionReader,
	notifier ...Notifier,
) CartService {
	var n Notifier
	if len(notifier) > 0 {
		n = notifier[0]
	}
	return &cartService{
		local:    local,
		remote:   remote,
		sessions: sessions,
		notifier: notifierOrNop(n),
		items:    []model.CartLine{},
	}
}

// Load fills the in-memory cart from storage (guest) or the server (authenticated).
// It never writes back.
func (s *cartService) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.load(ctx)
}

func (s *cartService) load(ctx context.Context) error {
	user := currentUser(ctx, s.sessions)

	var (
		lines []model.CartLine
		err   error
	)
	if user == nil {
		lines, err = s.local.Load(ctx)
	} else {
		lines, err = s.remote.Fetch(ctx, user.UserID)
	}
	if err != nil {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"authenticated": user != nil,
		})
		return err
	}

	s.loaded = true
	s.setItems(lines)

	logger.Info("Cart loaded", map[string]interface{}{
		"authenticated": user != nil,
		"count":         len(lines),
	})
	return nil
}

// ensureLoaded runs the first load before a mutation so an early write cannot clobber storage.
// Must be called with writeMu held.
func (s *cartService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.load(ctx)
}

func (s *cartService) Items(ctx context.Context) []model.CartLine {
	s.writeMu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		logger.Warn("Serving cart without initial load", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.writeMu.Unlock()

	return s.snapshot()
}

func (s *cartService) Summary(ctx context.Context) model.CartSummary {
	return model.Summarize(s.Items(ctx))
}

func (s *cartService) AddToCart(ctx context.Context, line model.CartLine) error {
	if line.ProductID <= 0 {
		return ErrInvalidCartLine
	}
	line = line.Normalized()

	logger.Info("Adding item to cart", map[string]interface{}{
		"product_id": line.ProductID,
		"variant_id": line.VariantID,
		"quantity":   line.Quantity,
	})

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	merged := mergeLine(s.snapshot(), line)

	if user := currentUser(ctx, s.sessions); user != nil {
		err := s.remote.AddItem(ctx, user.UserID, repository.NewAddCartItemRequest(line), "")
		if err != nil {
			logger.Error("Failed to add item to server cart", err, map[string]interface{}{
				"user_id":    user.UserID,
				"product_id": line.ProductID,
			})
			return err
		}
	} else if err := s.local.Save(ctx, merged); err != nil {
		return err
	}

	s.commit(merged)
	return nil
}

// RemoveFromCart drops every line of the product, whatever its variant
func (s *cartService) RemoveFromCart(ctx context.Context, productID int64) error {
	logger.Info("Removing product from cart", map[string]interface{}{
		"product_id": productID,
	})

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	current := s.snapshot()
	kept := make([]model.CartLine, 0, len(current))
	for _, l := range current {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}

	if user := currentUser(ctx, s.sessions); user != nil {
		if err := s.remote.RemoveProduct(ctx, user.UserID, productID); err != nil {
			logger.Error("Failed to remove product from server cart", err, map[string]interface{}{
				"user_id":    user.UserID,
				"product_id": productID,
			})
			return err
		}
	} else if err := s.local.Save(ctx, kept); err != nil {
		return err
	}

	s.commit(kept)
	return nil
}

// ClearCart empties the cart; in guest mode the stored key is removed, not set to an empty list
func (s *cartService) ClearCart(ctx context.Context) error {
	logger.Info("Clearing cart", nil)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if user := currentUser(ctx, s.sessions); user != nil {
		if err := s.remote.Clear(ctx, user.UserID); err != nil {
			logger.Error("Failed to clear server cart", err, map[string]interface{}{
				"user_id": user.UserID,
			})
			return err
		}
	} else if err := s.local.Delete(ctx); err != nil {
		return err
	}

	s.loaded = true
	s.commit([]model.CartLine{})
	return nil
}

// SetCartItems replaces the cart as given, without merging duplicates
func (s *cartService) SetCartItems(ctx context.Context, lines []model.CartLine) error {
	logger.Info("Replacing cart items", map[string]interface{}{
		"count": len(lines),
	})

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	replacement := model.CloneLines(lines)
	if currentUser(ctx, s.sessions) == nil {
		if err := s.local.Save(ctx, replacement); err != nil {
			return err
		}
	}

	s.loaded = true
	s.commit(replacement)
	return nil
}

// Refresh reloads the view from the source of the current mode
func (s *cartService) Refresh(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}
	s.publish()
	return nil
}

func (s *cartService) snapshot() []model.CartLine {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return model.CloneLines(s.items)
}

func (s *cartService) setItems(lines []model.CartLine) {
	s.viewMu.Lock()
	s.items = model.CloneLines(lines)
	s.viewMu.Unlock()
}

func (s *cartService) commit(lines []model.CartLine) {
	s.setItems(lines)
	s.publish()
}

func (s *cartService) publish() {
	items := s.snapshot()
	s.notifier.Publish(EventCartUpdated, CartChanged{
		Items:   items,
		Summary: model.Summarize(items),
	})
}

// mergeLine increments the line with the same product and variant, or appends it
func mergeLine(lines []model.CartLine, line model.CartLine) []model.CartLine {
	key := line.Key()
	for i := range lines {
		if lines[i].Key() == key {
			lines[i].Quantity += line.Quantity
			return lines
		}
	}
	return append(lines, line)
}
