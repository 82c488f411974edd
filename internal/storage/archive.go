// Package storage archives generated feed CSVs to a MinIO-compatible
// bucket. Archival is optional and purely additive to the /catalog
// routes; the service runs fine without it.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/retailsync/catalog-sync/internal/config"
)

// Archiver uploads a feed CSV snapshot to object storage. A nil *Archiver
// is valid and every method on it is a no-op, so callers don't need to
// branch on whether archival is configured.
type Archiver struct {
	client *minio.Client
	bucket string
}

// New returns nil, nil when archival isn't configured (cfg.Enabled() is
// false); the caller holds a nil *Archiver and every call below becomes
// a no-op.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: new minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Archiver{client: client, bucket: cfg.Bucket}, nil
}

// Upload stores body under key, returning the object's URL. Safe to call
// on a nil *Archiver.
func (a *Archiver) Upload(ctx context.Context, key string, body []byte) (string, error) {
	if a == nil {
		return "", nil
	}

	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", a.client.EndpointURL(), a.bucket, key), nil
}
