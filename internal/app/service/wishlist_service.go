package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
	"github.com/ikkim/udonggeum-storefront/pkg/util"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidWishlistEntry = errors.New("wishlist entry requires a product id")
)

type WishlistService interface {
	Load(ctx context.Context) error
	Items(ctx context.Context) []model.WishlistEntry
	IsFavorite(ctx context.Context, productID int64) bool
	Toggle(ctx context.Context, entry model.WishlistEntry) (bool, error)
	Remove(ctx context.Context, productID int64) error
}

type wishlistService struct {
	local    repository.WishlistRepository
	remote   repository.ServerWishlistRepository
	sessions SessionReader
	notifier Notifier
	now      func() time.Time

	fetches singleflight.Group

	writeMu sync.Mutex
	loaded  bool

	viewMu sync.RWMutex
	items  []model.WishlistEntry
}

func NewWishlistService(
	local repository.WishlistRepository,
	remote repository.ServerWishlistRepository,
	sessions SessionReader,
	notifier ...Notifier,
) WishlistService {
	var n Notifier
	if len(notifier) > 0 {
		n = notifier[0]
	}
	return &wishlistService{
		local:    local,
		remote:   remote,
		sessions: sessions,
		notifier: notifierOrNop(n),
		now:      time.Now,
		items:    []model.WishlistEntry{},
	}
}

// Load reads the guest wishlist, or in authenticated mode fetches the server
// wishlist and caches it locally together with any guest entries not migrated yet.
func (s *wishlistService) Load(ctx context.Context) error {
	user := currentUser(ctx, s.sessions)

	var serverEntries []model.WishlistEntry
	if user != nil {
		// concurrent loads share one request
		v, err, shared := s.fetches.Do(strconv.FormatInt(user.UserID, 10), func() (interface{}, error) {
			return s.remote.Fetch(ctx, user.UserID)
		})
		if err != nil {
			logger.Error("Failed to fetch server wishlist", err, map[string]interface{}{
				"user_id": user.UserID,
			})
			return err
		}
		serverEntries = v.([]model.WishlistEntry)
		logger.Debug("Server wishlist fetched", map[string]interface{}{
			"user_id": user.UserID,
			"count":   len(serverEntries),
			"shared":  shared,
		})
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.local.Load(ctx)
	if err != nil {
		return err
	}

	entries := stored
	if user != nil {
		entries = append(append([]model.WishlistEntry{}, serverEntries...), model.GuestEntries(stored)...)
		if err := s.local.Save(ctx, entries); err != nil {
			logger.Warn("Failed to cache server wishlist", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.loaded = true
	s.setItems(entries)
	s.publish()

	logger.Info("Wishlist loaded", map[string]interface{}{
		"authenticated": user != nil,
		"count":         len(entries),
	})
	return nil
}

func (s *wishlistService) ensureLoaded(ctx context.Context) error {
	s.writeMu.Lock()
	loaded := s.loaded
	s.writeMu.Unlock()
	if loaded {
		return nil
	}
	return s.Load(ctx)
}

func (s *wishlistService) Items(ctx context.Context) []model.WishlistEntry {
	if err := s.ensureLoaded(ctx); err != nil {
		logger.Warn("Serving wishlist without initial load", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return s.snapshot()
}

func (s *wishlistService) IsFavorite(ctx context.Context, productID int64) bool {
	_, ok := findEntry(s.Items(ctx), productID)
	return ok
}

// Toggle favorites the product when it is not on the wishlist and unfavorites it otherwise.
// It reports whether the product is favorited afterwards.
func (s *wishlistService) Toggle(ctx context.Context, entry model.WishlistEntry) (bool, error) {
	if entry.ProductID <= 0 {
		return false, ErrInvalidWishlistEntry
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snapshot()
	if existing, ok := findEntry(current, entry.ProductID); ok {
		if err := s.unfavorite(ctx, current, existing); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := s.favorite(ctx, current, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Remove unfavorites the product; a product not on the wishlist is a no-op
func (s *wishlistService) Remove(ctx context.Context, productID int64) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snapshot()
	existing, ok := findEntry(current, productID)
	if !ok {
		return nil
	}
	return s.unfavorite(ctx, current, existing)
}

func (s *wishlistService) favorite(ctx context.Context, current []model.WishlistEntry, entry model.WishlistEntry) error {
	now := s.now().UTC()
	user := currentUser(ctx, s.sessions)

	logger.Info("Adding product to wishlist", map[string]interface{}{
		"product_id":    entry.ProductID,
		"authenticated": user != nil,
	})

	if user == nil {
		entry.WishlistID = model.FlexibleID(uniqueGuestID(current, now))
		entry.CreatedAt = now
		// filter-then-push keeps one entry per product
		next := append(withoutProduct(current, entry.ProductID), entry)
		if err := s.local.Save(ctx, next); err != nil {
			return err
		}
		s.commit(next)
		return nil
	}

	created, err := s.remote.Create(ctx, repository.CreateWishlistRequest{
		UserID:    user.UserID,
		ProductID: entry.ProductID,
		VariantID: entry.VariantID,
		CreatedAt: now,
	}, "")
	if err != nil {
		logger.Error("Failed to create server wishlist entry", err, map[string]interface{}{
			"user_id":    user.UserID,
			"product_id": entry.ProductID,
		})
		return err
	}
	if created.ProductName == "" {
		created.ProductName = entry.ProductName
		created.Image = entry.Image
		created.Price = entry.Price
	}
	s.commit(append(current, *created))
	return nil
}

func (s *wishlistService) unfavorite(ctx context.Context, current []model.WishlistEntry, existing model.WishlistEntry) error {
	user := currentUser(ctx, s.sessions)
	next := withoutProduct(current, existing.ProductID)

	logger.Info("Removing product from wishlist", map[string]interface{}{
		"product_id":    existing.ProductID,
		"wishlist_id":   existing.WishlistID,
		"authenticated": user != nil,
	})

	// guest entries only exist locally, even after sign-in until they are migrated
	if user == nil || existing.IsGuest() {
		stored, err := s.local.Load(ctx)
		if err != nil {
			return err
		}
		if err := s.local.Save(ctx, withoutProduct(stored, existing.ProductID)); err != nil {
			return err
		}
		s.commit(next)
		return nil
	}

	if err := s.remote.Delete(ctx, existing.WishlistID); err != nil {
		logger.Error("Failed to delete server wishlist entry", err, map[string]interface{}{
			"user_id":     user.UserID,
			"wishlist_id": existing.WishlistID,
		})
		return err
	}
	s.commit(next)
	return nil
}

func (s *wishlistService) snapshot() []model.WishlistEntry {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return append([]model.WishlistEntry{}, s.items...)
}

func (s *wishlistService) setItems(entries []model.WishlistEntry) {
	s.viewMu.Lock()
	s.items = append([]model.WishlistEntry{}, entries...)
	s.viewMu.Unlock()
}

func (s *wishlistService) commit(entries []model.WishlistEntry) {
	s.setItems(entries)
	s.publish()
}

func (s *wishlistService) publish() {
	s.notifier.Publish(EventWishlistUpdated, WishlistChanged{Items: s.snapshot()})
}

func findEntry(entries []model.WishlistEntry, productID int64) (model.WishlistEntry, bool) {
	for _, e := range entries {
		if e.ProductID == productID {
			return e, true
		}
	}
	return model.WishlistEntry{}, false
}

func withoutProduct(entries []model.WishlistEntry, productID int64) []model.WishlistEntry {
	out := make([]model.WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID != productID {
			out = append(out, e)
		}
	}
	return out
}

// uniqueGuestID steps past ids already taken within the same millisecond
func uniqueGuestID(entries []model.WishlistEntry, now time.Time) string {
	taken := make(map[model.FlexibleID]bool, len(entries))
	for _, e := range entries {
		taken[e.WishlistID] = true
	}
	id := util.GuestWishlistID(now)
	for taken[model.FlexibleID(id)] {
		now = now.Add(time.Millisecond)
		id = util.GuestWishlistID(now)
	}
	return id
}
