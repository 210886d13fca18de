package service

import (
	"context"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

const (
	EventCartUpdated     = "cart.updated"
	EventWishlistUpdated = "wishlist.updated"
	EventSessionChanged  = "session.changed"
)

// Notifier receives state change events; the websocket hub implements it
type Notifier interface {
	Publish(eventType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// SessionReader tells guest from authenticated mode
type SessionReader interface {
	CurrentUser(ctx context.Context) (*model.SessionUser, error)
}

// currentUser re-reads the session; an unreadable session is treated as guest
func currentUser(ctx context.Context, sessions SessionReader) *model.SessionUser {
	user, err := sessions.CurrentUser(ctx)
	if err != nil {
		logger.Warn("Failed to read session, falling back to guest mode", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return user
}

type CartChanged struct {
	Items   []model.CartLine  `json:"items"`
	Summary model.CartSummary `json:"summary"`
}

type WishlistChanged struct {
	Items []model.WishlistEntry `json:"items"`
}

type SessionChanged struct {
	Authenticated bool  `json:"authenticated"`
	UserID        int64 `json:"userId,omitempty"`
}
