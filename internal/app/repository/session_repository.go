package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

// SessionRepository owns the auth keys and the raw snapshot/wipe used at logout
type SessionRepository interface {
	CurrentUser(ctx context.Context) (*model.SessionUser, error)
	SaveLogin(ctx context.Context, user *model.SessionUser, tokens model.TokenPair) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	ClearAuth(ctx context.Context) error
	WipeAll(ctx context.Context) error
	ReadRaw(ctx context.Context, key string) (string, bool, error)
	WriteRaw(ctx context.Context, key, value string) error
	RemoveRaw(ctx context.Context, key string) error
}

type sessionRepository struct {
	store kvstore.Store
}

func NewSessionRepository(store kvstore.Store) SessionRepository {
	return &sessionRepository{store: store}
}

// CurrentUser returns nil when no usable user record exists, which means guest mode
func (r *sessionRepository) CurrentUser(ctx context.Context) (*model.SessionUser, error) {
	var user model.SessionUser
	if err := readDocument(ctx, r.store, kvstore.KeyUser, &user); err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		logger.Error("Failed to read user record", err, nil)
		return nil, err
	}
	if user.UserID == 0 {
		logger.Debug("User record has no userId, treating as guest", nil)
		return nil, nil
	}
	return &user, nil
}

func (r *sessionRepository) SaveLogin(ctx context.Context, user *model.SessionUser, tokens model.TokenPair) error {
	logger.Debug("Saving login to store", map[string]interface{}{
		"user_id": user.UserID,
	})

	if err := writeDocument(ctx, r.store, kvstore.KeyAccessToken, tokens.AccessToken); err != nil {
		return err
	}
	if tokens.RefreshToken != "" {
		if err := writeDocument(ctx, r.store, kvstore.KeyRefreshToken, tokens.RefreshToken); err != nil {
			return err
		}
	}
	// user goes last so a half-written login still reads as guest
	return writeDocument(ctx, r.store, kvstore.KeyUser, user)
}

// AccessToken satisfies apiclient.TokenSource
func (r *sessionRepository) AccessToken(ctx context.Context) (string, error) {
	return r.readToken(ctx, kvstore.KeyAccessToken)
}

func (r *sessionRepository) RefreshToken(ctx context.Context) (string, error) {
	return r.readToken(ctx, kvstore.KeyRefreshToken)
}

// readToken accepts a JSON string or a bare token
func (r *sessionRepository) readToken(ctx context.Context, key string) (string, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	var token string
	if json.Unmarshal([]byte(raw), &token) == nil {
		return token, nil
	}
	return raw, nil
}

func (r *sessionRepository) ClearAuth(ctx context.Context) error {
	logger.Debug("Removing auth keys from store", nil)
	return kvstore.RemoveAll(ctx, r.store, kvstore.AuthKeys...)
}

func (r *sessionRepository) WipeAll(ctx context.Context) error {
	logger.Debug("Clearing all keys from store", nil)
	return r.store.Clear(ctx)
}

func (r *sessionRepository) ReadRaw(ctx context.Context, key string) (string, bool, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return raw, true, nil
}

func (r *sessionRepository) WriteRaw(ctx context.Context, key, value string) error {
	return r.store.Set(ctx, key, value)
}

func (r *sessionRepository) RemoveRaw(ctx context.Context, key string) error {
	return r.store.Remove(ctx, key)
}
