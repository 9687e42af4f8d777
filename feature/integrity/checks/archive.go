package checks

import (
	"context"
	"fmt"
	"strings"

	"catalog-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ArchiveReport describes the scan report bucket.
type ArchiveReport struct {
	Bucket  string `json:"bucket"`
	Exists  bool   `json:"exists"`
	Reports int    `json:"reports"`
}

// CheckArchive reports whether the archive bucket exists and how many reports it holds.
func CheckArchive(ctx context.Context, client storage.Client, bucket, prefix string) (*ArchiveReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report := &ArchiveReport{Bucket: bucket, Exists: exists}
	if !exists {
		return report, nil
	}

	opts := minio.ListObjectsOptions{Recursive: true}
	if prefix != "" {
		opts.Prefix = strings.TrimSuffix(prefix, "/") + "/"
	}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", bucket, obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".json") {
			report.Reports++
		}
	}
	return report, nil
}
