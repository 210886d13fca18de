package kvstore

import (
	"context"
	"fmt"

	"github.com/ikkim/udonggeum-storefront/config"
	"github.com/ikkim/udonggeum-storefront/internal/db"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
	appRedis "github.com/ikkim/udonggeum-storefront/pkg/redis"
)

// Factory creates the key-value store selected by STORAGE_DRIVER
type Factory struct {
	config *config.Config
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{config: cfg}
}

// Create opens the configured backend. The returned close function releases its connections.
func (f *Factory) Create(ctx context.Context) (Store, func() error, error) {
	ns := f.config.Storage.Namespace
	noop := func() error { return nil }

	logger.Info("Creating key-value store", map[string]interface{}{
		"driver":    f.config.Storage.Driver,
		"namespace": ns,
	})

	switch f.config.Storage.Driver {
	case "memory":
		return NewMemoryStore(), noop, nil

	case "redis":
		client, err := appRedis.Init(&f.config.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, ns), appRedis.Close, nil

	case "postgres":
		if err := db.Initialize(&f.config.Database); err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate kv table: %w", err)
		}
		return NewGormStore(db.GetDB(), ns), db.Close, nil

	case "s3":
		s3cfg := f.config.S3
		client, err := NewS3Client(ctx, s3cfg.Region, s3cfg.AccessKeyID, s3cfg.SecretAccessKey)
		if err != nil {
			return nil, nil, err
		}
		return NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix, ns), noop, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", f.config.Storage.Driver)
	}
}
