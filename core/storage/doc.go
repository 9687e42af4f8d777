// Package storage wraps the MinIO Go client for the scan report archive.
//
// The Client interface covers only what the archive needs (bucket checks, uploads,
// downloads and listings) so tests can replace it with core/storage/mocks.
// It works against AWS S3 and self-hosted MinIO alike.
//
//	client, err := storage.NewClient(cfg)
//	err = storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region)
package storage
