package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

var (
	ErrDocumentMissing = errors.New("document missing")
	ErrDocumentCorrupt = errors.New("document corrupt")
)

// readDocument decodes the JSON value under key into v.
// A value that does not decode is removed from the store and reported as ErrDocumentCorrupt.
func readDocument(ctx context.Context, store kvstore.Store, key string, v interface{}) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return ErrDocumentMissing
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if strings.TrimSpace(raw) == "" {
		return ErrDocumentMissing
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logger.Warn("Discarding corrupt document", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		if rmErr := store.Remove(ctx, key); rmErr != nil {
			logger.Error("Failed to remove corrupt document", rmErr, map[string]interface{}{
				"key": key,
			})
		}
		return ErrDocumentCorrupt
	}
	return nil
}

func writeDocument(ctx context.Context, store kvstore.Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// isAbsent reports a missing or discarded document
func isAbsent(err error) bool {
	return errors.Is(err, ErrDocumentMissing) || errors.Is(err, ErrDocumentCorrupt)
}
