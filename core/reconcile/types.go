package reconcile

import (
	"fmt"

	"table-sync/core/bitable"
)

// Stats counts row outcomes of a run. Counters only ever grow.
type Stats struct {
	Total     int `json:"total"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Total += o.Total
	s.Created += o.Created
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.Errors += o.Errors
}

// ActionType is the decision taken for a source row.
type ActionType string

const (
	// ActionCreate creates a new remote record.
	ActionCreate ActionType = "create"
	// ActionUpdate overwrites the ordinary fields of an existing record.
	ActionUpdate ActionType = "update"
)

// RelationWrite is a pending single-field update {Field: [RecordID]}.
type RelationWrite struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	RecordID string `json:"record_id"`
}

// Action is a planned write for one source row.
type Action struct {
	Type ActionType `json:"type"`

	// Key is the row's identity key.
	Key string `json:"key"`

	// Line is the source line of the row.
	Line int `json:"line"`

	// RecordID is the existing record for updates, or the created record
	// after a create succeeds.
	RecordID string `json:"record_id,omitempty"`

	// Fields holds the ordinary fields written in the primary call.
	Fields map[string]bitable.FieldValue `json:"-"`

	// Changed lists the compared fields that differed, for updates.
	Changed []string `json:"changed,omitempty"`

	// Relations are written one by one after the primary write succeeds.
	Relations []RelationWrite `json:"relations,omitempty"`
}

// CoercionResult is the outcome of a numeric coercion attempt.
type CoercionResult string

const (
	CoercionConverted    CoercionResult = "converted"
	CoercionKeptOriginal CoercionResult = "kept_original"
)

// CoercionOutcome records one numeric coercion attempt.
type CoercionOutcome struct {
	Line   int            `json:"line"`
	Key    string         `json:"key"`
	Field  string         `json:"field"`
	Raw    string         `json:"raw"`
	Result CoercionResult `json:"result"`
}

// RelationResult is the outcome of a relation write.
type RelationResult string

const (
	RelationApplied        RelationResult = "applied"
	RelationSkippedNoMatch RelationResult = "skipped:no_match"
	RelationFailed         RelationResult = "failed"
)

// RelationWriteOutcome records what happened to one relation value.
type RelationWriteOutcome struct {
	Line     int            `json:"line"`
	Key      string         `json:"key"`
	Field    string         `json:"field"`
	Value    string         `json:"value"`
	RecordID string         `json:"record_id,omitempty"`
	Result   RelationResult `json:"result"`
	Error    string         `json:"error,omitempty"`
}

// Stage names where a row failed.
const (
	StagePlan   = "plan"
	StageCreate = "create"
	StageUpdate = "update"
)

// RowError is a failure confined to one source row.
type RowError struct {
	Line  int    `json:"line"`
	Key   string `json:"key"`
	Stage string `json:"stage"`
	Err   error  `json:"-"`
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s) %s: %v", e.Line, e.Key, e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *RowError) Unwrap() error { return e.Err }

// Message returns the error text for serialization.
func (e *RowError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Plan is the output of Reconciler.Plan: the writes to perform plus what was
// decided without a write.
type Plan struct {
	// Actions holds creates and updates in source order.
	Actions []Action `json:"actions"`

	// Stats carries Total, Unchanged and planning Errors.
	Stats Stats `json:"stats"`

	Coercions []CoercionOutcome      `json:"coercions"`
	Relations []RelationWriteOutcome `json:"relations"`
	Errors    []*RowError            `json:"-"`
}

// Creates returns the create actions.
func (p *Plan) Creates() []Action { return p.filter(ActionCreate) }

// Updates returns the update actions.
func (p *Plan) Updates() []Action { return p.filter(ActionUpdate) }

func (p *Plan) filter(t ActionType) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// PlanSummary provides aggregate counts of a plan.
type PlanSummary struct {
	Total        int `json:"total"`
	Creates      int `json:"creates"`
	Updates      int `json:"updates"`
	Unchanged    int `json:"unchanged"`
	Errors       int `json:"errors"`
	RelationHits int `json:"relation_hits"`
	RelationMiss int `json:"relation_misses"`
	KeptOriginal int `json:"kept_original"`
}

// Summary returns aggregate counts of p.
func (p *Plan) Summary() PlanSummary {
	s := PlanSummary{
		Total:     p.Stats.Total,
		Unchanged: p.Stats.Unchanged,
		Errors:    p.Stats.Errors,
	}
	for _, a := range p.Actions {
		switch a.Type {
		case ActionCreate:
			s.Creates++
		case ActionUpdate:
			s.Updates++
		}
		s.RelationHits += len(a.Relations)
	}
	for _, r := range p.Relations {
		if r.Result == RelationSkippedNoMatch {
			s.RelationMiss++
		}
	}
	for _, c := range p.Coercions {
		if c.Result == CoercionKeptOriginal {
			s.KeptOriginal++
		}
	}
	return s
}
