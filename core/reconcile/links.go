package reconcile

import (
	"context"

	"table-sync/core/bitable"

	"go.uber.org/zap"
)

// RecordLister fetches every record of a table.
type RecordLister interface {
	ListRecords(ctx context.Context, tableID string, opts bitable.ListRecordsOptions) ([]bitable.Record, error)
}

// Renames maps a relation field name to the column that carries its display
// value, both in the source and in the related table.
type Renames map[string]string

// DefaultRenames returns the built-in rename table.
func DefaultRenames() Renames {
	return Renames{"企业简称": "企业"}
}

// DisplayColumn returns the column holding field's display value.
func (r Renames) DisplayColumn(field string) string {
	if col, ok := r[field]; ok && col != "" {
		return col
	}
	return field
}

// LinkCache maps, per related table, a display value to a record id.
// It is filled once per run and read-only afterwards.
type LinkCache struct {
	tables map[string]map[string]string
}

// NewLinkCache returns an empty cache.
func NewLinkCache() *LinkCache {
	return &LinkCache{tables: make(map[string]map[string]string)}
}

// Put records value -> recordID for tableID. Later puts overwrite.
func (c *LinkCache) Put(tableID, value, recordID string) {
	m, ok := c.tables[tableID]
	if !ok {
		m = make(map[string]string)
		c.tables[tableID] = m
	}
	m[value] = recordID
}

// Has reports whether tableID was cached.
func (c *LinkCache) Has(tableID string) bool {
	if c == nil {
		return false
	}
	_, ok := c.tables[tableID]
	return ok
}

// Lookup resolves value in tableID.
func (c *LinkCache) Lookup(tableID, value string) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.tables[tableID][value]
	return id, ok
}

// Size returns the number of entries cached for tableID.
func (c *LinkCache) Size(tableID string) int {
	if c == nil {
		return 0
	}
	return len(c.tables[tableID])
}

// BuildLinkCache loads every record of the related table of each
// relation-single field in schema, skipping tables already cached. A table that fails to load is
// logged and left out, so lookups against it miss.
func BuildLinkCache(ctx context.Context, lister RecordLister, schema *Schema, renames Renames, log *zap.Logger) *LinkCache {
	cache := NewLinkCache()

	for _, f := range schema.SingleRelations() {
		if f.RelatedTableID == "" {
			continue
		}
		if cache.Has(f.RelatedTableID) {
			continue
		}

		column := renames.DisplayColumn(f.Name)
		records, err := lister.ListRecords(ctx, f.RelatedTableID, bitable.ListRecordsOptions{})
		if err != nil {
			log.Warn("Failed to load related table, relation lookups will miss",
				zap.String("field", f.Name),
				zap.String("table_id", f.RelatedTableID),
				zap.Error(err),
			)
			continue
		}

		cache.tables[f.RelatedTableID] = make(map[string]string, len(records))
		for _, rec := range records {
			value := rec.Fields[column].String()
			if value == "" || rec.ID == "" {
				continue
			}
			cache.Put(f.RelatedTableID, value, rec.ID)
		}

		log.Info("Loaded related table",
			zap.String("field", f.Name),
			zap.String("table_id", f.RelatedTableID),
			zap.String("column", column),
			zap.Int("entries", cache.Size(f.RelatedTableID)),
		)
	}

	return cache
}
