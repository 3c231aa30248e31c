package storage

import (
	"context"
	"fmt"

	"docintake/internal/config"
)

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "minio":
		return NewMinIO(ctx, cfg)
	case "s3":
		return NewS3(ctx, cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrConfiguration, cfg.Driver)
	}
}
