package flush

import (
	"testing"

	"table-sync/core/source"

	"github.com/stretchr/testify/assert"
)

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name   string
		frozen []source.Cell
		want   string
	}{
		{
			name: "all columns",
			frozen: []source.Cell{
				{Column: ColumnEnterpriseID, Value: "E1"},
				{Column: ColumnDataset, Value: "D"},
				{Column: ColumnPeriod, Value: "2024Q1"},
				{Column: ColumnReportType, Value: "R"},
			},
			want: "E1_D2024Q1R",
		},
		{
			name:   "missing columns are empty",
			frozen: []source.Cell{{Column: ColumnPeriod, Value: "2024Q1"}},
			want:   "_2024Q1",
		},
		{name: "no columns", want: "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentityKey(source.Row{Frozen: tt.frozen}))
		})
	}
}

func TestIdentityKey_IgnoresDataZone(t *testing.T) {
	row := source.Row{
		Frozen: []source.Cell{{Column: ColumnEnterpriseID, Value: "E1"}},
		Data:   []source.Cell{{Column: ColumnEnterpriseID, Value: "E2"}},
	}
	assert.Equal(t, "E1_", IdentityKey(row))
}
