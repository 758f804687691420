package history

import "time"

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Event kinds.
const (
	EventCoercion = "coercion"
	EventRelation = "relation"
	EventRowError = "row_error"
)

// SyncRun is one recorded flush of a source into a table.
type SyncRun struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TableID    string    `gorm:"size:64;index" json:"table_id"`
	Mode       string    `gorm:"size:16" json:"mode"`
	Source     string    `gorm:"size:512" json:"source"`
	Status     string    `gorm:"size:16;index" json:"status"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	Total      int       `json:"total"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Errors     int       `json:"errors"`
	ReportKey  string    `gorm:"size:512" json:"report_key,omitempty"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Events []RunEvent `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

// TableName implements gorm's tabler.
func (SyncRun) TableName() string { return "sync_runs" }

// Duration is the wall time of the run.
func (r SyncRun) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// RunEvent is a per-row outcome worth keeping: a coercion, a relation write
// or a row error.
type RunEvent struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	RunID   string `gorm:"size:36;index" json:"-"`
	Kind    string `gorm:"size:16" json:"kind"`
	Line    int    `json:"line"`
	Key     string `gorm:"size:255" json:"key"`
	Field   string `gorm:"size:255" json:"field,omitempty"`
	Value   string `gorm:"type:text" json:"value,omitempty"`
	Result  string `gorm:"size:32" json:"result"`
	Message string `gorm:"type:text" json:"message,omitempty"`
}

// TableName implements gorm's tabler.
func (RunEvent) TableName() string { return "sync_run_events" }
