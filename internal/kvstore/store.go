// Package kvstore holds the device-local key-value persistence used by the cart,
// wishlist and session documents. Values are opaque JSON strings.
package kvstore

import (
	"context"
	"errors"
)

// Well-known keys shared with the mobile app
const (
	KeyCartItems         = "cartItems"
	KeyWishlistItems     = "wishlistItems"
	KeyUser              = "user"
	KeyAccessToken       = "accessToken"
	KeyRefreshToken      = "refreshToken"
	KeySelectedAddress   = "selectedAddress"
	KeySelectedCartItems = "selectedCartItems"

	// KeyGuestCartSnapshot holds the guest cart as it was at sign-in, for logout
	KeyGuestCartSnapshot = "guestCartSnapshot"
)

// AuthKeys are removed on logout before the general wipe
var AuthKeys = []string{KeyUser, KeyAccessToken, KeyRefreshToken}

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrKeyNotFound when the key is absent
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove is a no-op for absent keys
	Remove(ctx context.Context, key string) error
	// Clear wipes every key of this store
	Clear(ctx context.Context) error
}

// RemoveAll removes each key, stopping at the first failure
func RemoveAll(ctx context.Context, s Store, keys ...string) error {
	for _, key := range keys {
		if err := s.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
