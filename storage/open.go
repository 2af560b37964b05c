package storage

import (
	"context"
	"fmt"

	"github.com/Gravitalia/socialbook/config"
)

// Open builds the blob store selected by the configuration
func Open(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.Storage.Driver {
	case "local":
		return NewLocal(cfg.Storage.Directory, cfg.Server.PublicDomain, cfg.Storage.BaseURL), nil
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PublicURL: cfg.Storage.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
