package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
	"github.com/ikkim/udonggeum-storefront/pkg/util"
)

var (
	ErrInvalidCredentials = errors.New("email and password are required")
	ErrLoginMissingToken  = errors.New("login response carries no access token")
	ErrLoginMissingUser   = errors.New("login response carries no user id")
)

type LoginOutcome struct {
	User      *model.SessionUser `json:"user"`
	Migration *MigrationReport   `json:"migration"`
}

type SessionService interface {
	Current(ctx context.Context) (*model.SessionUser, bool)
	Login(ctx context.Context, email, password string) (*LoginOutcome, error)
	Logout(ctx context.Context, preserveGuestData bool) error
	ResumeMigration(ctx context.Context) (*MigrationReport, error)
}

type sessionService struct {
	sessions      repository.SessionRepository
	auth          repository.AuthRepository
	localWishlist repository.WishlistRepository
	migration     MigrationService
	cart          CartService
	wishlist      WishlistService
	notifier      Notifier
}

func NewSessionService(
	sessions repository.SessionRepository,
	auth repository.AuthRepository,
	localWishlist repository.WishlistRepository,
	migration MigrationService,
	cart CartService,
	wishlist WishlistService,
	notifier ...Notifier,
) SessionService {
	var n Notifier
	if len(notifier) > 0 {
		n = notifier[0]
	}
	return &sessionService{
		sessions:      sessions,
		auth:          auth,
		localWishlist: localWishlist,
		migration:     migration,
		cart:          cart,
		wishlist:      wishlist,
		notifier:      notifierOrNop(n),
	}
}

func (s *sessionService) Current(ctx context.Context) (*model.SessionUser, bool) {
	user := currentUser(ctx, s.sessions)
	return user, user != nil
}

// Login signs in, stores the session, migrates guest data and reloads both stores from the server.
// Migration failures are reported in the outcome, not as an error.
func (s *sessionService) Login(ctx context.Context, email, password string) (*LoginOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	logger.Info("Logging in", map[string]interface{}{
		"email": email,
	})

	result, err := s.auth.Login(ctx, email, password)
	if err != nil {
		logger.Warn("Login rejected", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}
	if result.Tokens.AccessToken == "" {
		return nil, ErrLoginMissingToken
	}

	user := result.User
	if claims, err := util.ParseUnverified(result.Tokens.AccessToken); err == nil {
		if user.UserID == 0 {
			user.UserID = claims.UserID
		}
		if user.Email == "" {
			user.Email = claims.Email
		}
		user.TokenExpiresAt = claims.ExpiresAtTime()
	} else if user.UserID == 0 {
		logger.Warn("Login response without user id and unreadable token", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
	}
	if user.UserID == 0 {
		return nil, ErrLoginMissingUser
	}

	if err := s.sessions.SaveLogin(ctx, &user, result.Tokens); err != nil {
		logger.Error("Failed to store session", err, map[string]interface{}{
			"user_id": user.UserID,
		})
		return nil, err
	}

	// migration strips migrated lines from cartItems, so keep the pre-login cart aside first
	if err := s.keepGuestCart(ctx); err != nil {
		logger.Warn("Failed to keep guest cart for logout", map[string]interface{}{
			"user_id": user.UserID,
			"error":   err.Error(),
		})
	}

	report := s.migration.MigrateGuestData(ctx, user.UserID)

	if err := s.cart.Refresh(ctx); err != nil {
		logger.Warn("Failed to refresh cart after login", map[string]interface{}{
			"user_id": user.UserID,
			"error":   err.Error(),
		})
	}
	if err := s.wishlist.Load(ctx); err != nil {
		logger.Warn("Failed to refresh wishlist after login", map[string]interface{}{
			"user_id": user.UserID,
			"error":   err.Error(),
		})
	}

	s.notifier.Publish(EventSessionChanged, SessionChanged{Authenticated: true, UserID: user.UserID})

	logger.Info("Login successful", map[string]interface{}{
		"user_id":       user.UserID,
		"cart_migrated": report.CartMigrated(),
		"cart_failed":   report.CartFailed(),
	})
	return &LoginOutcome{User: &user, Migration: report}, nil
}

// Logout drops the session and wipes storage. With preserveGuestData the guest cart kept
// at sign-in is restored verbatim and the wishlist is restored with guest entries only.
// A failure stops the sequence where it happened; nothing is rolled back.
func (s *sessionService) Logout(ctx context.Context, preserveGuestData bool) error {
	user := currentUser(ctx, s.sessions)
	fields := map[string]interface{}{
		"preserve_guest_data": preserveGuestData,
	}
	if user != nil {
		fields["user_id"] = user.UserID
	}
	logger.Info("Logging out", fields)

	var (
		cartSnapshot     string
		wishlistSnapshot []model.WishlistEntry
	)
	if preserveGuestData {
		for _, key := range []string{kvstore.KeyGuestCartSnapshot, kvstore.KeyCartItems} {
			raw, ok, err := s.sessions.ReadRaw(ctx, key)
			if err != nil {
				logger.Error("Failed to snapshot cart before logout", err, fields)
				return err
			}
			if ok && !isEmptyDocument(raw) {
				cartSnapshot = raw
				break
			}
		}

		entries, err := s.localWishlist.Load(ctx)
		if err != nil {
			logger.Error("Failed to snapshot wishlist before logout", err, fields)
			return err
		}
		wishlistSnapshot = model.GuestEntries(entries)
	}

	if err := s.sessions.ClearAuth(ctx); err != nil {
		logger.Error("Failed to remove auth keys", err, fields)
		return err
	}
	if err := s.sessions.WipeAll(ctx); err != nil {
		logger.Error("Failed to wipe storage", err, fields)
		return err
	}

	if cartSnapshot != "" {
		if err := s.sessions.WriteRaw(ctx, kvstore.KeyCartItems, cartSnapshot); err != nil {
			logger.Error("Failed to restore guest cart", err, fields)
			return err
		}
	}
	if len(wishlistSnapshot) > 0 {
		if err := s.localWishlist.Save(ctx, wishlistSnapshot); err != nil {
			logger.Error("Failed to restore guest wishlist", err, fields)
			return err
		}
	}

	if err := s.cart.Refresh(ctx); err != nil {
		logger.Warn("Failed to reload cart after logout", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := s.wishlist.Load(ctx); err != nil {
		logger.Warn("Failed to reload wishlist after logout", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.notifier.Publish(EventSessionChanged, SessionChanged{Authenticated: false})

	logger.Info("Logout complete", map[string]interface{}{
		"restored_cart":     cartSnapshot != "",
		"restored_wishlist": len(wishlistSnapshot),
	})
	return nil
}

// ResumeMigration retries guest data an earlier sign-in could not migrate.
// Both stores are reloaded when anything was attempted.
func (s *sessionService) ResumeMigration(ctx context.Context) (*MigrationReport, error) {
	user := currentUser(ctx, s.sessions)
	if user == nil {
		return nil, ErrAuthRequired
	}

	report := s.migration.MigrateGuestData(ctx, user.UserID)
	if len(report.Cart) == 0 && len(report.Wishlist) == 0 {
		return report, nil
	}

	if err := s.cart.Refresh(ctx); err != nil {
		logger.Warn("Failed to refresh cart after resumed migration", map[string]interface{}{
			"user_id": user.UserID,
			"error":   err.Error(),
		})
	}
	if err := s.wishlist.Load(ctx); err != nil {
		logger.Warn("Failed to refresh wishlist after resumed migration", map[string]interface{}{
			"user_id": user.UserID,
			"error":   err.Error(),
		})
	}
	return report, nil
}

// keepGuestCart copies the raw guest cart aside; an empty cart drops any stale copy
func (s *sessionService) keepGuestCart(ctx context.Context) error {
	raw, ok, err := s.sessions.ReadRaw(ctx, kvstore.KeyCartItems)
	if err != nil {
		return err
	}
	if !ok || isEmptyDocument(raw) {
		return s.sessions.RemoveRaw(ctx, kvstore.KeyGuestCartSnapshot)
	}
	return s.sessions.WriteRaw(ctx, kvstore.KeyGuestCartSnapshot, raw)
}

func isEmptyDocument(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "[]", "null":
		return true
	}
	return false
}
