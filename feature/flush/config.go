package flush

import (
	"fmt"
	"strings"
	"time"

	"table-sync/core/reconcile"
)

// Sync modes.
const (
	// ModeRecord writes records only.
	ModeRecord = "record"
	// ModeField first creates the source columns missing from the table.
	ModeField = "field"
)

// Config holds the sync settings.
type Config struct {
	// TableID is the default target table.
	TableID string `mapstructure:"table_id" default:""`
	// Mode is record or field.
	Mode string `mapstructure:"mode" default:"record"`
	// PacingMillis is the pause before link resolution.
	PacingMillis int `mapstructure:"pacing_millis" default:"500"`
	// BatchSize caps records per batch write.
	BatchSize int `mapstructure:"batch_size" default:"500"`
	// DryRun plans without writing.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// KeyField is the remote field holding the identity key.
	KeyField string `mapstructure:"key_field" default:"数据ID"`
	// Renames maps relation fields to their display column, "field=column"
	// pairs separated by commas.
	Renames string `mapstructure:"renames" default:"企业简称=企业"`
	// SchemaCacheSeconds is how long a table schema is reused by checks.
	SchemaCacheSeconds int `mapstructure:"schema_cache_seconds" default:"300"`
}

// Pacing returns the pause before link resolution.
func (c Config) Pacing() time.Duration {
	if c.PacingMillis < 0 {
		return 0
	}
	return time.Duration(c.PacingMillis) * time.Millisecond
}

// SchemaTTL returns the schema cache lifetime.
func (c Config) SchemaTTL() time.Duration {
	return time.Duration(c.SchemaCacheSeconds) * time.Second
}

// ParseRenames parses "field=column,field=column". An empty string yields
// an empty table.
func ParseRenames(s string) (reconcile.Renames, error) {
	out := reconcile.Renames{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		field, column, ok := strings.Cut(pair, "=")
		field, column = strings.TrimSpace(field), strings.TrimSpace(column)
		if !ok || field == "" || column == "" {
			return nil, fmt.Errorf("invalid rename %q, want field=column", pair)
		}
		out[field] = column
	}
	return out, nil
}

// ValidMode reports whether mode is known.
func ValidMode(mode string) bool {
	return mode == ModeRecord || mode == ModeField
}
