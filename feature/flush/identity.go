package flush

import "table-sync/core/source"

// Identity columns, read from the frozen zone.
const (
	ColumnEnterpriseID = "企业ID"
	ColumnDataset      = "数据集"
	ColumnPeriod       = "会计期间"
	ColumnReportType   = "报表类型"
)

// IdentityKey builds "<企业ID>_<数据集><会计期间><报表类型>" from the
// frozen zone of row. Missing columns count as empty.
func IdentityKey(row source.Row) string {
	get := func(column string) string {
		v, _ := row.FrozenValue(column)
		return v
	}
	return get(ColumnEnterpriseID) + "_" + get(ColumnDataset) + get(ColumnPeriod) + get(ColumnReportType)
}
