package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SchemaLoader fetches and classifies the fields of a table.
type SchemaLoader func(ctx context.Context, tableID string) (*Schema, error)

type cachedSchema struct {
	schema *Schema
	built  time.Time
}

// SchemaCache keeps resolved schemas per table for TTL. Concurrent misses
// on the same table share one load.
type SchemaCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	schemas map[string]cachedSchema
	sf      singleflight.Group
}

// NewSchemaCache returns a cache holding entries for ttl. A zero ttl
// disables caching.
func NewSchemaCache(ttl time.Duration) *SchemaCache {
	return &SchemaCache{
		ttl:     ttl,
		now:     time.Now,
		schemas: make(map[string]cachedSchema),
	}
}

func (c *SchemaCache) fresh(tableID string) (*Schema, bool) {
	c.mu.RLock()
	entry, ok := c.schemas[tableID]
	c.mu.RUnlock()
	if !ok || c.ttl <= 0 || c.now().Sub(entry.built) > c.ttl {
		return nil, false
	}
	return entry.schema, true
}

// GetOrLoad returns the cached schema of tableID, or loads and stores it.
func (c *SchemaCache) GetOrLoad(ctx context.Context, tableID string, load SchemaLoader) (*Schema, error) {
	if s, ok := c.fresh(tableID); ok {
		return s, nil
	}

	v, err, _ := c.sf.Do(tableID, func() (interface{}, error) {
		if s, ok := c.fresh(tableID); ok {
			return s, nil
		}

		s, err := load(ctx, tableID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.schemas[tableID] = cachedSchema{schema: s, built: c.now()}
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

// Invalidate drops the entry for tableID.
func (c *SchemaCache) Invalidate(tableID string) {
	c.mu.Lock()
	delete(c.schemas, tableID)
	c.mu.Unlock()
}
