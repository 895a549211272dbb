package storage

import (
	"fmt"

	"github.com/newthinker/folio/internal/config"
)

// New creates the store selected by cfg.Type.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "localfs", "":
		return NewLocalFS(cfg.Path, cfg.BaseURL)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
