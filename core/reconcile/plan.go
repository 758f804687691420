package reconcile

import (
	"context"

	"table-sync/core/bitable"

	"go.uber.org/zap"
)

// Mutator writes single records to the target table.
type Mutator interface {
	CreateRecord(ctx context.Context, tableID string, fields map[string]bitable.FieldValue) (bitable.Record, error)
	UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]bitable.FieldValue) (bitable.Record, error)
}

// BatchMutator is implemented by mutators that can write many records per call.
type BatchMutator interface {
	BatchCreateRecords(ctx context.Context, tableID string, records []map[string]bitable.FieldValue) ([]bitable.Record, error)
	BatchUpdateRecords(ctx context.Context, tableID string, updates []bitable.RecordUpdate) ([]bitable.Record, error)
}

// ApplyOptions controls ApplyPlan.
type ApplyOptions struct {
	TableID string

	// BatchSize caps records per batch call. Defaults to bitable.MaxBatchSize.
	BatchSize int

	// DryRun skips every write.
	DryRun bool
}

// ApplyResult is what ApplyPlan did.
type ApplyResult struct {
	Stats     Stats
	Relations []RelationWriteOutcome
	Errors    []*RowError
}

// ApplyPlan executes the creates and then the updates of plan. Each chunk is
// written with one batch call when m supports it; a failed chunk is retried
// one record at a time. Relation fields are written after the record they
// belong to. Only context cancellation stops the run early.
func ApplyPlan(ctx context.Context, m Mutator, plan *Plan, opts ApplyOptions, log *zap.Logger) (*ApplyResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BatchSize <= 0 || opts.BatchSize > bitable.MaxBatchSize {
		opts.BatchSize = bitable.MaxBatchSize
	}

	a := &applier{m: m, opts: opts, log: log, res: &ApplyResult{Relations: []RelationWriteOutcome{}}}
	if opts.DryRun {
		return a.res, nil
	}

	for _, group := range [][]Action{plan.Creates(), plan.Updates()} {
		for start := 0; start < len(group); start += opts.BatchSize {
			if err := ctx.Err(); err != nil {
				return a.res, err
			}
			end := min(start+opts.BatchSize, len(group))
			a.chunk(ctx, group[start:end])
		}
	}

	return a.res, nil
}

type applier struct {
	m    Mutator
	opts ApplyOptions
	log  *zap.Logger
	res  *ApplyResult
}

func (a *applier) chunk(ctx context.Context, actions []Action) {
	if batch, ok := a.m.(BatchMutator); ok {
		err := a.batch(ctx, batch, actions)
		if err == nil {
			return
		}
		a.log.Warn("Batch write failed, falling back to single writes",
			zap.String("type", string(actions[0].Type)),
			zap.Int("records", len(actions)),
			zap.Error(err),
		)
	}

	for _, action := range actions {
		a.single(ctx, action)
	}
}

func (a *applier) batch(ctx context.Context, batch BatchMutator, actions []Action) error {
	switch actions[0].Type {
	case ActionCreate:
		records := make([]map[string]bitable.FieldValue, len(actions))
		for i, action := range actions {
			records[i] = action.Fields
		}
		created, err := batch.BatchCreateRecords(ctx, a.opts.TableID, records)
		if err != nil {
			return err
		}
		a.res.Stats.Created += len(actions)
		for i, action := range actions {
			if i >= len(created) || created[i].ID == "" {
				if len(action.Relations) > 0 {
					a.log.Warn("Batch create returned no record id, relation fields skipped",
						zap.String("key", action.Key))
				}
				continue
			}
			a.relations(ctx, action, created[i].ID)
		}

	case ActionUpdate:
		updates := make([]bitable.RecordUpdate, len(actions))
		for i, action := range actions {
			updates[i] = bitable.RecordUpdate{ID: action.RecordID, Fields: action.Fields}
		}
		if _, err := batch.BatchUpdateRecords(ctx, a.opts.TableID, updates); err != nil {
			return err
		}
		a.res.Stats.Updated += len(actions)
		for _, action := range actions {
			a.relations(ctx, action, action.RecordID)
		}
	}
	return nil
}

func (a *applier) single(ctx context.Context, action Action) {
	var (
		recordID = action.RecordID
		stage    string
		err      error
	)

	switch action.Type {
	case ActionCreate:
		stage = StageCreate
		var rec bitable.Record
		rec, err = a.m.CreateRecord(ctx, a.opts.TableID, action.Fields)
		recordID = rec.ID
	case ActionUpdate:
		stage = StageUpdate
		_, err = a.m.UpdateRecord(ctx, a.opts.TableID, action.RecordID, action.Fields)
	}

	if err != nil {
		a.res.Stats.Errors++
		a.res.Errors = append(a.res.Errors, &RowError{Line: action.Line, Key: action.Key, Stage: stage, Err: err})
		a.log.Error("Failed to write record",
			zap.String("stage", stage),
			zap.Int("line", action.Line),
			zap.String("key", action.Key),
			zap.Error(err),
		)
		return
	}

	if action.Type == ActionCreate {
		a.res.Stats.Created++
		a.log.Debug("Created record", zap.String("key", action.Key), zap.String("record_id", recordID))
	} else {
		a.res.Stats.Updated++
		a.log.Debug("Updated record", zap.String("key", action.Key), zap.Strings("changed", action.Changed))
	}
	a.relations(ctx, action, recordID)
}

// relations writes each pending relation as its own update. A failure is
// reported and the record is kept.
func (a *applier) relations(ctx context.Context, action Action, recordID string) {
	for _, rel := range action.Relations {
		outcome := RelationWriteOutcome{
			Line:     action.Line,
			Key:      action.Key,
			Field:    rel.Field,
			Value:    rel.Value,
			RecordID: rel.RecordID,
			Result:   RelationApplied,
		}

		patch := map[string]bitable.FieldValue{rel.Field: bitable.List(rel.RecordID)}
		if _, err := a.m.UpdateRecord(ctx, a.opts.TableID, recordID, patch); err != nil {
			outcome.Result = RelationFailed
			outcome.Error = err.Error()
			a.log.Warn("Failed to write relation field",
				zap.String("key", action.Key),
				zap.String("field", rel.Field),
				zap.String("related_record_id", rel.RecordID),
				zap.Error(err),
			)
		}
		a.res.Relations = append(a.res.Relations, outcome)
	}
}
