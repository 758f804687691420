package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"table-sync/core/bitable"
	"table-sync/core/source"

	"go.uber.org/zap"
)

// DefaultKeyField is the remote field holding a row's identity key.
const DefaultKeyField = "数据ID"

// ErrBlankRow is reported for a source row that carries no value.
var ErrBlankRow = errors.New("row has no values")

// Spec describes how source rows map onto one remote table.
type Spec struct {
	// Schema is the classified field set of the target table.
	Schema *Schema

	// Links resolves single-relation display values. May be nil.
	Links *LinkCache

	// KeyField is the remote field holding the identity key.
	KeyField string

	// Identity derives the identity key of a row.
	Identity func(source.Row) string

	// Renames maps relation fields to their source display column.
	Renames Renames
}

// Reconciler turns source rows into a Plan against the existing records.
type Reconciler struct {
	spec   Spec
	logger *zap.Logger
}

// NewReconciler returns a Reconciler for spec. A nil logger discards output.
func NewReconciler(spec Spec, logger *zap.Logger) *Reconciler {
	if spec.KeyField == "" {
		spec.KeyField = DefaultKeyField
	}
	if spec.Schema == nil {
		spec.Schema = ResolveSchema(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{spec: spec, logger: logger}
}

// IndexRecords maps the keyField value of each record to the record. Records
// without a key are skipped; on duplicate keys the last record wins.
func IndexRecords(records []bitable.Record, keyField string) map[string]bitable.Record {
	index := make(map[string]bitable.Record, len(records))
	for _, rec := range records {
		key := rec.Fields[keyField].String()
		if key == "" {
			continue
		}
		index[key] = rec
	}
	return index
}

// Plan decides, for every row, whether to create, update or leave the
// matching record alone. A failing row is counted in Stats.Errors and never
// stops the others.
func (r *Reconciler) Plan(rows []source.Row, existing map[string]bitable.Record) *Plan {
	plan := &Plan{
		Coercions: []CoercionOutcome{},
		Relations: []RelationWriteOutcome{},
	}
	plan.Stats.Total = len(rows)

	for _, row := range rows {
		if err := r.planRow(plan, row, existing); err != nil {
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				rowErr = &RowError{Line: row.Line, Stage: StagePlan, Err: err}
			}
			plan.Stats.Errors++
			plan.Errors = append(plan.Errors, rowErr)
			r.logger.Error("Failed to process row",
				zap.Int("line", rowErr.Line),
				zap.String("key", rowErr.Key),
				zap.Error(rowErr.Err),
			)
		}
	}

	return plan
}

func (r *Reconciler) planRow(plan *Plan, row source.Row, existing map[string]bitable.Record) (err error) {
	var key string
	defer func() {
		if p := recover(); p != nil {
			err = &RowError{Line: row.Line, Key: key, Stage: StagePlan, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if row.IsBlank() {
		return &RowError{Line: row.Line, Stage: StagePlan, Err: ErrBlankRow}
	}

	if r.spec.Identity != nil {
		key = r.spec.Identity(row)
	}

	merged := row.Merged()
	raw := make(map[string]string, len(merged)+1)
	order := make([]string, 0, len(merged)+1)
	for _, c := range merged {
		if _, ok := raw[c.Column]; !ok {
			order = append(order, c.Column)
		}
		raw[c.Column] = c.Value
	}
	if _, ok := raw[r.spec.KeyField]; !ok {
		order = append(order, r.spec.KeyField)
	}
	raw[r.spec.KeyField] = key

	schema := r.spec.Schema
	fields := make(map[string]bitable.FieldValue, len(order))
	for _, name := range order {
		switch schema.Kind(name) {
		case KindRelationMulti, KindRelationSingle:
			continue
		case KindNumber:
			fields[name] = r.coerceNumber(plan, row.Line, key, name, raw[name])
		default:
			fields[name] = bitable.Text(raw[name])
		}
	}

	relations := r.resolveRelations(plan, row.Line, key, raw)

	action := Action{Key: key, Line: row.Line, Fields: fields, Relations: relations}

	rec, found := existing[key]
	if !found {
		action.Type = ActionCreate
		plan.Actions = append(plan.Actions, action)
		return nil
	}

	changed := diffFields(order, fields, rec.Fields)
	if len(changed) == 0 {
		plan.Stats.Unchanged++
		return nil
	}

	action.Type = ActionUpdate
	action.RecordID = rec.ID
	action.Changed = changed
	plan.Actions = append(plan.Actions, action)
	return nil
}

// coerceNumber converts a number field's raw value. Empty values are sent
// as null and are not reported.
func (r *Reconciler) coerceNumber(plan *Plan, line int, key, field, raw string) bitable.FieldValue {
	if raw == "" {
		return bitable.Unset()
	}

	outcome := CoercionOutcome{Line: line, Key: key, Field: field, Raw: raw}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		outcome.Result = CoercionKeptOriginal
		plan.Coercions = append(plan.Coercions, outcome)
		return bitable.Text(raw)
	}

	outcome.Result = CoercionConverted
	plan.Coercions = append(plan.Coercions, outcome)
	return bitable.Number(f)
}

// resolveRelations looks up the display value of every single relation. The
// source column is the renamed column when present, else the field itself.
func (r *Reconciler) resolveRelations(plan *Plan, line int, key string, raw map[string]string) []RelationWrite {
	var writes []RelationWrite

	for _, f := range r.spec.Schema.SingleRelations() {
		value, ok := raw[r.spec.Renames.DisplayColumn(f.Name)]
		if !ok {
			value, ok = raw[f.Name]
		}
		if !ok || value == "" || f.RelatedTableID == "" || !r.spec.Links.Has(f.RelatedTableID) {
			continue
		}

		id, hit := r.spec.Links.Lookup(f.RelatedTableID, value)
		if !hit {
			r.logger.Warn("No related record matches display value",
				zap.Int("line", line),
				zap.String("field", f.Name),
				zap.String("value", value),
			)
			plan.Relations = append(plan.Relations, RelationWriteOutcome{
				Line:   line,
				Key:    key,
				Field:  f.Name,
				Value:  value,
				Result: RelationSkippedNoMatch,
			})
			continue
		}

		writes = append(writes, RelationWrite{Field: f.Name, Value: value, RecordID: id})
	}

	return writes
}

// diffFields returns, in column order, the fields whose write value differs
// from the remote value. Fields absent remotely are not compared.
func diffFields(order []string, fields, remote map[string]bitable.FieldValue) []string {
	var changed []string
	for _, name := range order {
		want, ok := fields[name]
		if !ok {
			continue
		}
		have, ok := remote[name]
		if !ok {
			continue
		}
		if want.String() != have.String() {
			changed = append(changed, name)
		}
	}
	return changed
}
