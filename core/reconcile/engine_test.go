package reconcile

import (
	"testing"

	"table-sync/core/bitable"
	"table-sync/core/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSchema() *Schema {
	return ResolveSchema([]bitable.Field{
		{Name: "数据ID", Type: bitable.TypeText},
		{Name: "企业ID", Type: bitable.TypeText},
		{Name: "营业收入", Type: bitable.TypeNumber},
		{Name: "企业简称", Type: bitable.TypeDuplexLink, Property: &bitable.FieldProperty{TableID: "tblCo"}},
		{Name: "标签", Type: bitable.TypeDuplexLink, Property: &bitable.FieldProperty{TableID: "tblTag", Multiple: boolPtr(true)}},
	})
}

func firstColumnKey(r source.Row) string {
	v, _ := r.FrozenValue("企业ID")
	return v
}

func row(line int, frozen map[string]string, data ...source.Cell) source.Row {
	r := source.Row{Line: line, Data: data}
	for _, name := range []string{"企业ID", "企业", "企业简称", "标签"} {
		if v, ok := frozen[name]; ok {
			r.Frozen = append(r.Frozen, source.Cell{Column: name, Value: v})
		}
	}
	return r
}

func cell(column, value string) source.Cell {
	return source.Cell{Column: column, Value: value}
}

func newTestReconciler(links *LinkCache) *Reconciler {
	return NewReconciler(Spec{
		Schema:   testSchema(),
		Links:    links,
		Identity: firstColumnKey,
		Renames:  DefaultRenames(),
	}, zap.NewNop())
}

func TestPlan_CreateWhenAbsent(t *testing.T) {
	r := newTestReconciler(nil)

	plan := r.Plan([]source.Row{
		row(2, map[string]string{"企业ID": "E1", "标签": "x"}, cell("营业收入", "1200.50")),
	}, nil)

	require.Len(t, plan.Actions, 1)
	a := plan.Actions[0]
	assert.Equal(t, ActionCreate, a.Type)
	assert.Equal(t, "E1", a.Key)
	assert.Equal(t, bitable.Text("E1"), a.Fields["数据ID"])
	assert.Equal(t, bitable.Number(1200.5), a.Fields["营业收入"])
	assert.NotContains(t, a.Fields, "标签", "multi relations are dropped")

	require.Len(t, plan.Coercions, 1)
	assert.Equal(t, CoercionConverted, plan.Coercions[0].Result)
	assert.Equal(t, 1, plan.Stats.Total)
}

func TestPlan_NumberCoercion(t *testing.T) {
	r := newTestReconciler(nil)

	plan := r.Plan([]source.Row{
		row(2, map[string]string{"企业ID": "E1"}, cell("营业收入", "N/A")),
		row(3, map[string]string{"企业ID": "E2"}, cell("营业收入", "")),
		row(4, map[string]string{"企业ID": "E3"}, cell("营业收入", " 7 ")),
	}, nil)

	require.Len(t, plan.Actions, 3)
	assert.Equal(t, bitable.Text("N/A"), plan.Actions[0].Fields["营业收入"])
	assert.True(t, plan.Actions[1].Fields["营业收入"].IsUnset())
	assert.Equal(t, bitable.Number(7), plan.Actions[2].Fields["营业收入"])

	require.Len(t, plan.Coercions, 2, "empty values are not attempted")
	assert.Equal(t, CoercionKeptOriginal, plan.Coercions[0].Result)
	assert.Equal(t, "N/A", plan.Coercions[0].Raw)
	assert.Equal(t, CoercionConverted, plan.Coercions[1].Result)
	assert.Equal(t, 1, plan.Summary().KeptOriginal)
}

func TestPlan_UnchangedAndUpdate(t *testing.T) {
	r := newTestReconciler(nil)

	existing := IndexRecords([]bitable.Record{
		{ID: "rec1", Fields: map[string]bitable.FieldValue{
			"数据ID": bitable.Text("E1"), "企业ID": bitable.Text("E1"), "营业收入": bitable.Number(100),
		}},
		{ID: "rec2", Fields: map[string]bitable.FieldValue{
			"数据ID": bitable.Text("E2"), "企业ID": bitable.Text("E2"), "营业收入": bitable.Number(5),
		}},
	}, DefaultKeyField)

	plan := r.Plan([]source.Row{
		row(2, map[string]string{"企业ID": "E1"}, cell("营业收入", "100.0"), cell("备注", "new")),
		row(3, map[string]string{"企业ID": "E2"}, cell("营业收入", "6")),
	}, existing)

	assert.Equal(t, 1, plan.Stats.Unchanged, "fields absent remotely are not compared")
	require.Len(t, plan.Actions, 1)
	a := plan.Actions[0]
	assert.Equal(t, ActionUpdate, a.Type)
	assert.Equal(t, "rec2", a.RecordID)
	assert.Equal(t, []string{"营业收入"}, a.Changed)
	assert.Len(t, plan.Updates(), 1)
	assert.Empty(t, plan.Creates())
}

func TestPlan_SingleRelationHitAndMiss(t *testing.T) {
	links := NewLinkCache()
	links.Put("tblCo", "甲公司", "recCo1")
	r := newTestReconciler(links)

	existing := IndexRecords([]bitable.Record{
		{ID: "rec1", Fields: map[string]bitable.FieldValue{
			"数据ID": bitable.Text("E1"), "企业简称": bitable.List("recOld"),
		}},
	}, DefaultKeyField)

	plan := r.Plan([]source.Row{
		row(2, map[string]string{"企业ID": "E1", "企业": "甲公司"}),
		row(3, map[string]string{"企业ID": "E2", "企业简称": "乙公司"}),
	}, existing)

	assert.Equal(t, 1, plan.Stats.Unchanged, "relations are not compared")
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "E2", plan.Actions[0].Key)
	assert.Empty(t, plan.Actions[0].Relations)
	assert.NotContains(t, plan.Actions[0].Fields, "企业简称")

	require.Len(t, plan.Relations, 1)
	miss := plan.Relations[0]
	assert.Equal(t, RelationSkippedNoMatch, miss.Result)
	assert.Equal(t, "乙公司", miss.Value)
	assert.Equal(t, "企业简称", miss.Field)

	created := r.Plan([]source.Row{row(4, map[string]string{"企业ID": "E9", "企业": "甲公司"})}, nil)
	require.Len(t, created.Actions, 1)
	assert.Equal(t, []RelationWrite{{Field: "企业简称", Value: "甲公司", RecordID: "recCo1"}}, created.Actions[0].Relations)
	assert.Equal(t, bitable.Text("甲公司"), created.Actions[0].Fields["企业"], "display column passes through")
}

func TestPlan_RowErrorsDoNotAbort(t *testing.T) {
	r := NewReconciler(Spec{
		Schema: testSchema(),
		Identity: func(row source.Row) string {
			if row.Line == 3 {
				panic("bad row")
			}
			return firstColumnKey(row)
		},
	}, nil)

	plan := r.Plan([]source.Row{
		row(2, map[string]string{"企业ID": "E1"}),
		row(3, map[string]string{"企业ID": "E2"}),
		{Line: 4, Frozen: []source.Cell{cell("企业ID", "")}},
		row(5, map[string]string{"企业ID": "E4"}),
	}, nil)

	assert.Equal(t, 4, plan.Stats.Total)
	assert.Equal(t, 2, plan.Stats.Errors)
	assert.Len(t, plan.Actions, 2)
	require.Len(t, plan.Errors, 2)
	assert.Equal(t, 3, plan.Errors[0].Line)
	assert.ErrorIs(t, plan.Errors[1], ErrBlankRow)
}

func TestIndexRecords_LastWinsSkipsEmpty(t *testing.T) {
	idx := IndexRecords([]bitable.Record{
		{ID: "a", Fields: map[string]bitable.FieldValue{"数据ID": bitable.Text("K")}},
		{ID: "b", Fields: map[string]bitable.FieldValue{"数据ID": bitable.Text("")}},
		{ID: "c", Fields: map[string]bitable.FieldValue{}},
		{ID: "d", Fields: map[string]bitable.FieldValue{"数据ID": bitable.Text("K")}},
	}, DefaultKeyField)

	assert.Len(t, idx, 1)
	assert.Equal(t, "d", idx["K"].ID)
}
