package storage_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"table-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	for name, cfg := range map[string]storage.Config{
		"PlainEndpoint": {Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"},
		"EndpointWithScheme": {
			Endpoint: "https://s3.amazonaws.com", AccessKey: "k", SecretKey: "s",
			UseSSL: true, Region: "us-east-1",
		},
	} {
		t.Run(name, func(t *testing.T) {
			client, err := storage.NewClient(cfg)
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestConfig_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, storage.Config{}.Timeout())
	assert.Equal(t, 5*time.Second, storage.Config{TimeoutSeconds: 5}.Timeout())
}

func TestParseLocation(t *testing.T) {
	loc, ok := storage.ParseLocation("s3://inbox/2024/q1.csv")
	require.True(t, ok)
	assert.Equal(t, storage.Location{Bucket: "inbox", Key: "2024/q1.csv"}, loc)
	assert.Equal(t, "s3://inbox/2024/q1.csv", loc.String())

	for _, s := range []string{"/tmp/q1.csv", "s3://inbox", "s3:///key", "s3://inbox/", "q1.csv"} {
		_, ok := storage.ParseLocation(s)
		assert.False(t, ok, s)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, storage.IsNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, storage.IsNotFound(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.True(t, storage.IsNotFound(fmt.Errorf("report x: %w", storage.ErrNotFound)))
	assert.False(t, storage.IsNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, storage.IsNotFound(errors.New("boom")))
	assert.False(t, storage.IsNotFound(nil))
}
