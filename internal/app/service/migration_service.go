package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// migrationNamespace seeds the name-based idempotency keys of migration requests
var migrationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("udonggeum-storefront/guest-migration"))

const (
	OutcomeKindCart     = "cart"
	OutcomeKindWishlist = "wishlist"
)

// ItemOutcome records what happened to one guest line or entry during migration
type ItemOutcome struct {
	Kind           string           `json:"kind"`
	ProductID      int64            `json:"productId"`
	VariantID      *int64           `json:"variantId,omitempty"`
	WishlistID     model.FlexibleID `json:"wishlistId,omitempty"`
	IdempotencyKey string           `json:"idempotencyKey"`
	Succeeded      bool             `json:"succeeded"`
	Error          string           `json:"error,omitempty"`
}

type MigrationReport struct {
	UserID          int64         `json:"userId"`
	Cart            []ItemOutcome `json:"cart"`
	Wishlist        []ItemOutcome `json:"wishlist"`
	SkippedWishlist int           `json:"skippedWishlist"`
	StartedAt       time.Time     `json:"startedAt"`
	FinishedAt      time.Time     `json:"finishedAt"`
}

func countOutcomes(outcomes []ItemOutcome, succeeded bool) int {
	n := 0
	for _, o := range outcomes {
		if o.Succeeded == succeeded {
			n++
		}
	}
	return n
}

func (r *MigrationReport) CartMigrated() int     { return countOutcomes(r.Cart, true) }
func (r *MigrationReport) CartFailed() int       { return countOutcomes(r.Cart, false) }
func (r *MigrationReport) WishlistMigrated() int { return countOutcomes(r.Wishlist, true) }
func (r *MigrationReport) WishlistFailed() int   { return countOutcomes(r.Wishlist, false) }

// Complete reports whether nothing is left to retry
func (r *MigrationReport) Complete() bool {
	return r.CartFailed() == 0 && r.WishlistFailed() == 0
}

type MigrationService interface {
	MigrateGuestData(ctx context.Context, userID int64) *MigrationReport
	Pending(ctx context.Context) (cartLines, wishlistEntries int, err error)
}

type migrationService struct {
	localCart      repository.CartRepository
	localWishlist  repository.WishlistRepository
	serverCart     repository.ServerCartRepository
	serverWishlist repository.ServerWishlistRepository
	now            func() time.Time

	// one migration at a time: sign-in and the scheduled sweep may overlap
	mu sync.Mutex
}

func NewMigrationService(
	localCart repository.CartRepository,
	localWishlist repository.WishlistRepository,
	serverCart repository.ServerCartRepository,
	serverWishlist repository.ServerWishlistRepository,
) MigrationService {
	return &migrationService{
		localCart:      localCart,
		localWishlist:  localWishlist,
		serverCart:     serverCart,
		serverWishlist: serverWishlist,
		now:            time.Now,
	}
}

// MigrateGuestData pushes the guest cart and guest wishlist entries to the user's server records.
// Items are sent one by one; a local item is dropped only after its request succeeded.
// Failures end up in the report and the logs, never in a returned error.
func (s *migrationService) MigrateGuestData(ctx context.Context, userID int64) *MigrationReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &MigrationReport{
		UserID:    userID,
		Cart:      []ItemOutcome{},
		Wishlist:  []ItemOutcome{},
		StartedAt: s.now().UTC(),
	}

	logger.Info("Migrating guest data", map[string]interface{}{
		"user_id": userID,
	})

	s.migrateCart(ctx, report)
	s.migrateWishlist(ctx, report)

	report.FinishedAt = s.now().UTC()

	fields := map[string]interface{}{
		"user_id":           userID,
		"cart_migrated":     report.CartMigrated(),
		"cart_failed":       report.CartFailed(),
		"wishlist_migrated": report.WishlistMigrated(),
		"wishlist_failed":   report.WishlistFailed(),
		"wishlist_skipped":  report.SkippedWishlist,
	}
	if report.Complete() {
		logger.Info("Guest data migrated", fields)
	} else {
		logger.Warn("Guest data partially migrated", fields)
	}
	return report
}

func (s *migrationService) migrateCart(ctx context.Context, report *MigrationReport) {
	lines, err := s.localCart.Load(ctx)
	if err != nil {
		logger.Error("Failed to read guest cart for migration", err, map[string]interface{}{
			"user_id": report.UserID,
		})
		return
	}
	if len(lines) == 0 {
		return
	}

	var failed []model.CartLine
	for _, line := range lines {
		outcome := ItemOutcome{
			Kind:           OutcomeKindCart,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			IdempotencyKey: cartIdempotencyKey(report.UserID, line),
		}

		err := s.serverCart.AddItem(ctx, report.UserID, repository.NewAddCartItemRequest(line), outcome.IdempotencyKey)
		if err != nil {
			logger.Warn("Failed to migrate cart line", map[string]interface{}{
				"user_id":    report.UserID,
				"product_id": line.ProductID,
				"variant_id": line.VariantID,
				"error":      err.Error(),
			})
			outcome.Error = err.Error()
			failed = append(failed, line)
		} else {
			outcome.Succeeded = true
		}
		report.Cart = append(report.Cart, outcome)
	}

	if len(failed) == 0 {
		err = s.localCart.Delete(ctx)
	} else {
		err = s.localCart.Save(ctx, failed)
	}
	if err != nil {
		logger.Error("Failed to update guest cart after migration", err, map[string]interface{}{
			"user_id":   report.UserID,
			"remaining": len(failed),
		})
	}
}

func (s *migrationService) migrateWishlist(ctx context.Context, report *MigrationReport) {
	entries, err := s.localWishlist.Load(ctx)
	if err != nil {
		logger.Error("Failed to read guest wishlist for migration", err, map[string]interface{}{
			"user_id": report.UserID,
		})
		return
	}

	guests := model.GuestEntries(entries)
	report.SkippedWishlist = len(entries) - len(guests)
	if len(guests) == 0 {
		return
	}

	migrated := make(map[model.FlexibleID]bool, len(guests))
	for _, entry := range guests {
		createdAt := entry.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.now().UTC()
		}
		outcome := ItemOutcome{
			Kind:           OutcomeKindWishlist,
			ProductID:      entry.ProductID,
			VariantID:      entry.VariantID,
			WishlistID:     entry.WishlistID,
			IdempotencyKey: wishlistIdempotencyKey(report.UserID, entry),
		}

		_, err := s.serverWishlist.Create(ctx, repository.CreateWishlistRequest{
			UserID:    report.UserID,
			ProductID: entry.ProductID,
			VariantID: entry.VariantID,
			CreatedAt: createdAt,
		}, outcome.IdempotencyKey)
		if err != nil {
			logger.Warn("Failed to migrate wishlist entry", map[string]interface{}{
				"user_id":     report.UserID,
				"product_id":  entry.ProductID,
				"wishlist_id": entry.WishlistID,
				"error":       err.Error(),
			})
			outcome.Error = err.Error()
		} else {
			outcome.Succeeded = true
			migrated[entry.WishlistID] = true
		}
		report.Wishlist = append(report.Wishlist, outcome)
	}

	if len(migrated) == 0 {
		return
	}

	remaining := make([]model.WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if !migrated[e.WishlistID] {
			remaining = append(remaining, e)
		}
	}
	if len(remaining) == 0 {
		err = s.localWishlist.Delete(ctx)
	} else {
		err = s.localWishlist.Save(ctx, remaining)
	}
	if err != nil {
		logger.Error("Failed to update guest wishlist after migration", err, map[string]interface{}{
			"user_id":   report.UserID,
			"remaining": len(remaining),
		})
	}
}

// Pending counts the guest cart lines and guest wishlist entries still stored locally
func (s *migrationService) Pending(ctx context.Context) (int, int, error) {
	lines, err := s.localCart.Load(ctx)
	if err != nil {
		return 0, 0, err
	}
	entries, err := s.localWishlist.Load(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(lines), len(model.GuestEntries(entries)), nil
}

func variantPart(variantID *int64) string {
	if variantID == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *variantID)
}

// cartIdempotencyKey is stable for the same user and line, so a retried line reuses its key
func cartIdempotencyKey(userID int64, line model.CartLine) string {
	name := fmt.Sprintf("cart:%d:%d:%s:%d:%s", userID, line.ProductID, variantPart(line.VariantID), line.Quantity, line.Price.String())
	return uuid.NewSHA1(migrationNamespace, []byte(name)).String()
}

func wishlistIdempotencyKey(userID int64, entry model.WishlistEntry) string {
	name := fmt.Sprintf("wishlist:%d:%s:%d:%s", userID, entry.WishlistID, entry.ProductID, variantPart(entry.VariantID))
	return uuid.NewSHA1(migrationNamespace, []byte(name)).String()
}
