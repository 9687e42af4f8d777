package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"catalog-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Archive uploads scan reports as JSON objects under <prefix>/<date>/<run-id>.json.
type Archive struct {
	client storage.Client
	bucket string
	region string
	prefix string
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client storage.Client, cfg storage.Config) *Archive {
	return &Archive{client: client, bucket: cfg.Bucket, region: cfg.Region, prefix: cfg.Prefix}
}

// Key returns the object name of a report.
func (a *Archive) Key(r *Report) string {
	return path.Join(a.prefix, r.StartedAt.Format("2006-01-02"), r.RunID+".json")
}

// Put stores the report, creating the bucket on first use.
func (a *Archive) Put(ctx context.Context, r *Report) (string, error) {
	if err := storage.EnsureBucket(ctx, a.client, a.bucket, a.region); err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := a.Key(r)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return key, nil
}

// ReportInfo describes one archived report.
type ReportInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// List returns the archived reports, newest first.
func (a *Archive) List(ctx context.Context) ([]ReportInfo, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if a.prefix != "" {
		opts.Prefix = strings.TrimSuffix(a.prefix, "/") + "/"
	}

	var out []ReportInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		out = append(out, ReportInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

// Get downloads and decodes one report by key.
func (a *Archive) Get(ctx context.Context, key string) (*Report, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", key, err)
	}
	defer obj.Close()

	var r Report
	if err := json.NewDecoder(obj).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", key, err)
	}
	return &r, nil
}
