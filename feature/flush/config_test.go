package flush

import (
	"testing"
	"time"

	"table-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenames(t *testing.T) {
	r, err := ParseRenames("企业简称=企业, 行业 = 所属行业,")
	require.NoError(t, err)
	assert.Equal(t, reconcile.Renames{"企业简称": "企业", "行业": "所属行业"}, r)

	r, err = ParseRenames("")
	require.NoError(t, err)
	assert.Empty(t, r)

	_, err = ParseRenames("企业简称")
	assert.ErrorContains(t, err, "want field=column")

	_, err = ParseRenames("=企业")
	assert.Error(t, err)
}

func TestConfig_Durations(t *testing.T) {
	c := Config{PacingMillis: 500, SchemaCacheSeconds: 60}
	assert.Equal(t, 500*time.Millisecond, c.Pacing())
	assert.Equal(t, time.Minute, c.SchemaTTL())
	assert.Zero(t, Config{PacingMillis: -1}.Pacing())
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode(ModeRecord))
	assert.True(t, ValidMode(ModeField))
	assert.False(t, ValidMode("both"))
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Missing: []string{"bitable.app_id", "table id"}, Invalid: []string{`mode "x"`}}
	assert.Equal(t, `configuration error: missing bitable.app_id, table id; invalid mode "x"`, err.Error())
}
