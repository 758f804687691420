package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Archive stores run reports as JSON objects under a key prefix.
type Archive struct {
	client Client
	bucket string
	prefix string
}

// NewArchive creates an Archive writing to bucket under prefix.
func NewArchive(client Client, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of runID's report.
func (a *Archive) Key(runID string) string {
	return path.Join(a.prefix, runID+".json")
}

// Save uploads report for runID, creating the bucket on first use.
func (a *Archive) Save(ctx context.Context, runID string, report []byte) (string, error) {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket %s: %w", a.bucket, err)
		}
	}

	key := a.Key(runID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(report), int64(len(report)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", key, err)
	}
	return key, nil
}

// Load downloads the report of runID. A missing report yields ErrNotFound.
func (a *Archive) Load(ctx context.Context, runID string) ([]byte, error) {
	key := a.Key(runID)
	if _, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{}); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("report %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("stat report %s: %w", runID, err)
	}

	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", runID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", runID, err)
	}
	return data, nil
}

// List returns the run ids with an archived report, sorted.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	var ids []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list reports: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, a.prefix)
		name = strings.TrimPrefix(name, "/")
		if id, ok := strings.CutSuffix(name, ".json"); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
