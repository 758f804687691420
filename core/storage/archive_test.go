package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"table-sync/core/storage"
	"table-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestArchive_SaveCreatesBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "sync").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "sync", minio.MakeBucketOptions{}).Return(nil)
	client.On("PutObject", mock.Anything, "sync", "reports/run-1.json", mock.Anything, int64(2), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	key, err := storage.NewArchive(client, "sync", "reports/").Save(context.Background(), "run-1", []byte("{}"))

	require.NoError(t, err)
	assert.Equal(t, "reports/run-1.json", key)
	client.AssertExpectations(t)
}

func TestArchive_SaveUploadError(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "sync").Return(true, nil)
	client.On("PutObject", mock.Anything, "sync", "reports/run-1.json", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	_, err := storage.NewArchive(client, "sync", "reports/").Save(context.Background(), "run-1", []byte("{}"))

	assert.ErrorContains(t, err, "quota exceeded")
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchive_Load(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "sync", "reports/run-1.json", mock.Anything).Return(minio.ObjectInfo{}, nil)
	client.On("GetObject", mock.Anything, "sync", "reports/run-1.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(`{"ok":true}`)), nil)

	data, err := storage.NewArchive(client, "sync", "reports/").Load(context.Background(), "run-1")

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestArchive_LoadMissing(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "sync", "reports/run-9.json", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	_, err := storage.NewArchive(client, "sync", "reports/").Load(context.Background(), "run-9")

	assert.ErrorIs(t, err, storage.ErrNotFound)
	client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestArchive_List(t *testing.T) {
	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "reports/b.json"}
	ch <- minio.ObjectInfo{Key: "reports/a.json"}
	ch <- minio.ObjectInfo{Key: "reports/notes.txt"}
	close(ch)

	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "sync", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	ids, err := storage.NewArchive(client, "sync", "reports/").List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}
