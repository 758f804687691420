package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"table-sync/core/bitable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCache_GetOrLoad(t *testing.T) {
	c := NewSchemaCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	var loads int32
	load := func(ctx context.Context, tableID string) (*Schema, error) {
		atomic.AddInt32(&loads, 1)
		return ResolveSchema([]bitable.Field{{Name: "数据ID", Type: bitable.TypeText}}), nil
	}

	s1, err := c.GetOrLoad(context.Background(), "tbl", load)
	require.NoError(t, err)
	s2, err := c.GetOrLoad(context.Background(), "tbl", load)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.EqualValues(t, 1, loads)

	now = now.Add(2 * time.Minute)
	_, err = c.GetOrLoad(context.Background(), "tbl", load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, loads, "expired entries reload")

	c.Invalidate("tbl")
	_, err = c.GetOrLoad(context.Background(), "tbl", load)
	require.NoError(t, err)
	assert.EqualValues(t, 3, loads)
}

func TestSchemaCache_ZeroTTLAlwaysLoads(t *testing.T) {
	c := NewSchemaCache(0)
	var loads int32
	load := func(ctx context.Context, tableID string) (*Schema, error) {
		atomic.AddInt32(&loads, 1)
		return ResolveSchema(nil), nil
	}

	for i := 0; i < 3; i++ {
		_, err := c.GetOrLoad(context.Background(), "tbl", load)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, loads)
}

func TestSchemaCache_LoadErrorNotCached(t *testing.T) {
	c := NewSchemaCache(time.Minute)
	_, err := c.GetOrLoad(context.Background(), "tbl", func(ctx context.Context, tableID string) (*Schema, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")

	s, err := c.GetOrLoad(context.Background(), "tbl", func(ctx context.Context, tableID string) (*Schema, error) {
		return ResolveSchema(nil), nil
	})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSchemaCache_ConcurrentMissesShareLoad(t *testing.T) {
	c := NewSchemaCache(time.Minute)
	release := make(chan struct{})
	var loads int32
	load := func(ctx context.Context, tableID string) (*Schema, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return ResolveSchema(nil), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrLoad(context.Background(), "tbl", load)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&loads), int32(2))
}
