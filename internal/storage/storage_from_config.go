package storage

import (
	"context"
	"fmt"

	"ponyfiction/internal/config"
)

// FromConfig returns the backend selected by storage.driver.
func FromConfig(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "local", "":
		return NewLocal(cfg.LocalRoot, cfg.PublicPath)
	case "minio":
		return NewMinIO(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
