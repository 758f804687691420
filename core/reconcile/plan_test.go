package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"table-sync/core/bitable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMutator struct {
	mock.Mock
}

func (m *mockMutator) CreateRecord(ctx context.Context, tableID string, fields map[string]bitable.FieldValue) (bitable.Record, error) {
	args := m.Called(ctx, tableID, fields)
	return args.Get(0).(bitable.Record), args.Error(1)
}

func (m *mockMutator) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]bitable.FieldValue) (bitable.Record, error) {
	args := m.Called(ctx, tableID, recordID, fields)
	return args.Get(0).(bitable.Record), args.Error(1)
}

// mockBatchMutator adds the batch calls on top of mockMutator.
type mockBatchMutator struct {
	mockMutator
}

func (m *mockBatchMutator) BatchCreateRecords(ctx context.Context, tableID string, records []map[string]bitable.FieldValue) ([]bitable.Record, error) {
	args := m.Called(ctx, tableID, records)
	if fn, ok := args.Get(0).(func(context.Context, string, []map[string]bitable.FieldValue) []bitable.Record); ok {
		return fn(ctx, tableID, records), args.Error(1)
	}
	out, _ := args.Get(0).([]bitable.Record)
	return out, args.Error(1)
}

func (m *mockBatchMutator) BatchUpdateRecords(ctx context.Context, tableID string, updates []bitable.RecordUpdate) ([]bitable.Record, error) {
	args := m.Called(ctx, tableID, updates)
	out, _ := args.Get(0).([]bitable.Record)
	return out, args.Error(1)
}

func createAction(key string, rels ...RelationWrite) Action {
	return Action{
		Type:      ActionCreate,
		Key:       key,
		Fields:    map[string]bitable.FieldValue{"数据ID": bitable.Text(key)},
		Relations: rels,
	}
}

func keyIs(key string) interface{} {
	return mock.MatchedBy(func(f map[string]bitable.FieldValue) bool {
		return f["数据ID"].String() == key
	})
}

func TestApplyPlan_DryRun(t *testing.T) {
	m := new(mockMutator)
	plan := &Plan{Actions: []Action{createAction("A")}}

	res, err := ApplyPlan(context.Background(), m, plan, ApplyOptions{TableID: "tbl", DryRun: true}, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Stats.Created)
	m.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyPlan_SingleWritesWithoutBatchSupport(t *testing.T) {
	m := new(mockMutator)
	m.On("CreateRecord", mock.Anything, "tbl", keyIs("A")).Return(bitable.Record{ID: "recA"}, nil)
	m.On("UpdateRecord", mock.Anything, "tbl", "recB", keyIs("B")).Return(bitable.Record{ID: "recB"}, nil)
	m.On("UpdateRecord", mock.Anything, "tbl", "recA", map[string]bitable.FieldValue{"企业简称": bitable.List("recCo")}).
		Return(bitable.Record{ID: "recA"}, nil)

	plan := &Plan{Actions: []Action{
		createAction("A", RelationWrite{Field: "企业简称", Value: "甲", RecordID: "recCo"}),
		{Type: ActionUpdate, Key: "B", RecordID: "recB", Fields: map[string]bitable.FieldValue{"数据ID": bitable.Text("B")}},
	}}

	res, err := ApplyPlan(context.Background(), m, plan, ApplyOptions{TableID: "tbl"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Created)
	assert.Equal(t, 1, res.Stats.Updated)
	require.Len(t, res.Relations, 1)
	assert.Equal(t, RelationApplied, res.Relations[0].Result)
	m.AssertExpectations(t)
}

func TestApplyPlan_BatchCreateFallsBackToSingles(t *testing.T) {
	m := new(mockBatchMutator)
	m.On("BatchCreateRecords", mock.Anything, "tbl", mock.Anything).Return(nil, errors.New("1254045 FieldNameNotFound"))
	m.On("CreateRecord", mock.Anything, "tbl", keyIs("K1")).Return(bitable.Record{ID: "r1"}, nil)
	m.On("CreateRecord", mock.Anything, "tbl", keyIs("K2")).Return(bitable.Record{}, errors.New("bad row"))
	m.On("CreateRecord", mock.Anything, "tbl", keyIs("K3")).Return(bitable.Record{ID: "r3"}, nil)

	plan := &Plan{Actions: []Action{createAction("K1"), createAction("K2"), createAction("K3")}}

	res, err := ApplyPlan(context.Background(), m, plan, ApplyOptions{TableID: "tbl"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Created)
	assert.Equal(t, 1, res.Stats.Errors)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "K2", res.Errors[0].Key)
	assert.Equal(t, StageCreate, res.Errors[0].Stage)
	m.AssertNumberOfCalls(t, "BatchCreateRecords", 1)
	m.AssertNumberOfCalls(t, "CreateRecord", 3)
}

func TestApplyPlan_ChunksBatches(t *testing.T) {
	m := new(mockBatchMutator)
	m.On("BatchCreateRecords", mock.Anything, "tbl", mock.Anything).
		Return(func(_ context.Context, _ string, records []map[string]bitable.FieldValue) []bitable.Record {
			out := make([]bitable.Record, len(records))
			for i, f := range records {
				out[i] = bitable.Record{ID: "rec-" + f["数据ID"].String()}
			}
			return out
		}, nil)

	var actions []Action
	for i := 0; i < 5; i++ {
		actions = append(actions, createAction(fmt.Sprintf("K%d", i)))
	}

	res, err := ApplyPlan(context.Background(), m, &Plan{Actions: actions}, ApplyOptions{TableID: "tbl", BatchSize: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stats.Created)
	m.AssertNumberOfCalls(t, "BatchCreateRecords", 3)
}

func TestApplyPlan_RelationFailureKeepsRecord(t *testing.T) {
	m := new(mockBatchMutator)
	m.On("BatchUpdateRecords", mock.Anything, "tbl", []bitable.RecordUpdate{
		{ID: "recB", Fields: map[string]bitable.FieldValue{"数据ID": bitable.Text("B")}},
	}).Return([]bitable.Record{{ID: "recB"}}, nil)
	m.On("UpdateRecord", mock.Anything, "tbl", "recB", mock.Anything).Return(bitable.Record{}, errors.New("link rejected"))

	plan := &Plan{Actions: []Action{{
		Type:      ActionUpdate,
		Key:       "B",
		RecordID:  "recB",
		Fields:    map[string]bitable.FieldValue{"数据ID": bitable.Text("B")},
		Relations: []RelationWrite{{Field: "企业简称", Value: "甲", RecordID: "recCo"}},
	}}}

	res, err := ApplyPlan(context.Background(), m, plan, ApplyOptions{TableID: "tbl"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Updated)
	assert.Zero(t, res.Stats.Errors)
	require.Len(t, res.Relations, 1)
	assert.Equal(t, RelationFailed, res.Relations[0].Result)
	assert.Contains(t, res.Relations[0].Error, "link rejected")
}

func TestApplyPlan_CancelledContext(t *testing.T) {
	m := new(mockBatchMutator)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ApplyPlan(ctx, m, &Plan{Actions: []Action{createAction("A")}}, ApplyOptions{TableID: "tbl"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNotCalled(t, "BatchCreateRecords", mock.Anything, mock.Anything, mock.Anything)
}
