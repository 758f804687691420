package flush

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"table-sync/core/bitable"
	"table-sync/core/history"
	"table-sync/core/logger"
	"table-sync/core/reconcile"
	"table-sync/core/source"
	"table-sync/core/storage"
	"table-sync/core/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Remote is the bitable surface a run needs. *bitable.Client implements it,
// including the batch calls ApplyPlan looks for.
type Remote interface {
	reconcile.RecordLister
	reconcile.Mutator
	ListFields(ctx context.Context, tableID string) ([]bitable.Field, error)
	CreateField(ctx context.Context, tableID, name string, fieldType int, property *bitable.FieldProperty) (bitable.Field, error)
}

// Settings are the configured defaults of a Service.
type Settings struct {
	Bitable bitable.Config
	Source  source.Config
	Sync    Config
}

// Deps are the collaborators of a Service. Only Remote is required.
type Deps struct {
	Remote Remote
	// Objects serves s3:// sources.
	Objects storage.Client
	// Archive keeps a JSON report of every run.
	Archive *storage.Archive
	// History records every run.
	History *history.Store
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
	// Sleep waits for the pacing delay. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs syncs and header checks against one bitable app.
type Service struct {
	settings Settings
	renames  reconcile.Renames
	deps     Deps
	schemas  *reconcile.SchemaCache
	logger   *zap.Logger
}

// NewService returns a Service. It fails when the rename table cannot be
// parsed.
func NewService(settings Settings, deps Deps) (*Service, error) {
	renames, err := ParseRenames(settings.Sync.Renames)
	if err != nil {
		return nil, &ConfigError{Invalid: []string{"sync.renames: " + err.Error()}}
	}
	if settings.Sync.KeyField == "" {
		settings.Sync.KeyField = reconcile.DefaultKeyField
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		settings: settings,
		renames:  renames,
		deps:     deps,
		schemas:  reconcile.NewSchemaCache(settings.Sync.SchemaTTL()),
		logger:   deps.Logger,
	}, nil
}

// Request selects what to sync. Empty fields fall back to the settings.
type Request struct {
	Source     string `json:"source"`
	TableID    string `json:"table_id"`
	Mode       string `json:"mode"`
	FrozenZone string `json:"frozen_zone"`
	DataZone   string `json:"data_zone"`
	DryRun     bool   `json:"dry_run"`
}

type resolved struct {
	source  string
	tableID string
	mode    string
	dryRun  bool
	opts    source.Options
}

// resolve applies the defaults and verifies every prerequisite of a remote
// call.
func (s *Service) resolve(req Request) (resolved, error) {
	r := resolved{
		source:  firstNonEmpty(req.Source, s.settings.Source.Path),
		tableID: firstNonEmpty(req.TableID, s.settings.Sync.TableID),
		mode:    firstNonEmpty(req.Mode, s.settings.Sync.Mode, ModeRecord),
		dryRun:  req.DryRun || s.settings.Sync.DryRun,
	}

	cerr := &ConfigError{}
	for _, c := range []struct{ name, value string }{
		{"bitable.app_id", s.settings.Bitable.AppID},
		{"bitable.app_secret", s.settings.Bitable.AppSecret},
		{"bitable.app_token", s.settings.Bitable.AppToken},
		{"table id", r.tableID},
		{"source", r.source},
	} {
		if c.value == "" {
			cerr.Missing = append(cerr.Missing, c.name)
		}
	}
	if !ValidMode(r.mode) {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("mode %q", r.mode))
	}

	zones := source.Config{
		FrozenZone: firstNonEmpty(req.FrozenZone, s.settings.Source.FrozenZone, source.DefaultFrozenZone),
		DataZone:   firstNonEmpty(req.DataZone, s.settings.Source.DataZone, source.DefaultDataZone),
	}
	opts, err := zones.Options()
	if err != nil {
		cerr.Invalid = append(cerr.Invalid, err.Error())
	}
	r.opts = opts

	if !cerr.empty() {
		return r, cerr
	}
	return r, nil
}

// Result is the outcome of a run.
type Result struct {
	RunID      string                           `json:"run_id"`
	TableID    string                           `json:"table_id"`
	Mode       string                           `json:"mode"`
	Source     string                           `json:"source"`
	DryRun     bool                             `json:"dry_run"`
	Stats      reconcile.Stats                  `json:"stats"`
	Summary    reconcile.PlanSummary            `json:"summary"`
	Coercions  []reconcile.CoercionOutcome      `json:"coercions"`
	Relations  []reconcile.RelationWriteOutcome `json:"relations"`
	RowErrors  []RowErrorReport                 `json:"row_errors"`
	NewFields  []string                         `json:"new_fields,omitempty"`
	StartedAt  time.Time                        `json:"started_at"`
	FinishedAt time.Time                        `json:"finished_at"`
	ReportKey  string                           `json:"report_key,omitempty"`
}

// RowErrorReport is a serializable row failure.
type RowErrorReport struct {
	Line    int    `json:"line"`
	Key     string `json:"key"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Run syncs one source into one table. Errors before the first write abort
// the run and are returned; row failures are counted in the result. Once the
// settings resolve, the result is returned alongside any error and holds
// whatever was written before it.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	started := s.deps.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Coercions: []reconcile.CoercionOutcome{},
		Relations: []reconcile.RelationWriteOutcome{},
		RowErrors: []RowErrorReport{},
	}

	r, err := s.resolve(req)
	res.TableID, res.Mode, res.Source, res.DryRun = r.tableID, r.mode, r.source, r.dryRun
	if err != nil {
		return nil, err
	}

	log := logger.WithRun(s.logger, res.RunID, r.tableID)
	log.Info("Sync started", zap.String("source", r.source), zap.String("mode", r.mode), zap.Bool("dry_run", r.dryRun))

	runErr := s.run(ctx, r, res, log)
	res.FinishedAt = s.deps.Now()

	// The outcome is kept even when the caller has gone away.
	detached := context.WithoutCancel(ctx)
	s.deps.Metrics.RecordRun(detached, r.tableID, r.mode, res.FinishedAt.Sub(started), runErr == nil)
	s.record(detached, res, runErr, log)

	if runErr != nil {
		log.Error("Sync failed", zap.Error(runErr), zap.Int("created", res.Stats.Created), zap.Int("updated", res.Stats.Updated))
		return res, runErr
	}

	log.Info("Sync finished",
		zap.Int("total", res.Stats.Total),
		zap.Int("created", res.Stats.Created),
		zap.Int("updated", res.Stats.Updated),
		zap.Int("unchanged", res.Stats.Unchanged),
		zap.Int("errors", res.Stats.Errors),
		zap.Duration("duration", res.FinishedAt.Sub(started)),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, r resolved, res *Result, log *zap.Logger) error {
	sheet, err := source.Load(ctx, r.source, s.deps.Objects, r.opts)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	log.Info("Source loaded", zap.Int("rows", len(sheet.Rows)), zap.String("encoding", sheet.Encoding))

	s.schemas.Invalidate(r.tableID)
	schema, err := s.schema(ctx, r.tableID)
	if err != nil {
		return err
	}

	if r.mode == ModeField {
		created, err := s.ensureFields(ctx, r, sheet, schema, log)
		if err != nil {
			return err
		}
		res.NewFields = created
		if len(created) > 0 {
			s.schemas.Invalidate(r.tableID)
			if schema, err = s.schema(ctx, r.tableID); err != nil {
				return err
			}
		}
	}

	records, err := s.deps.Remote.ListRecords(ctx, r.tableID, bitable.ListRecordsOptions{})
	if err != nil {
		return fmt.Errorf("fetch existing records: %w", err)
	}
	existing := reconcile.IndexRecords(records, s.settings.Sync.KeyField)
	log.Info("Existing records fetched", zap.Int("records", len(records)), zap.Int("keys", len(existing)))

	if err := s.deps.Sleep(ctx, s.settings.Sync.Pacing()); err != nil {
		return err
	}

	links := reconcile.BuildLinkCache(ctx, s.deps.Remote, schema, s.renames, log)

	reconciler := reconcile.NewReconciler(reconcile.Spec{
		Schema:   schema,
		Links:    links,
		KeyField: s.settings.Sync.KeyField,
		Identity: IdentityKey,
		Renames:  s.renames,
	}, log)
	plan := reconciler.Plan(sheet.Rows, existing)
	res.Summary = plan.Summary()

	applied, err := reconcile.ApplyPlan(ctx, s.deps.Remote, plan, reconcile.ApplyOptions{
		TableID:   r.tableID,
		BatchSize: s.settings.Sync.BatchSize,
		DryRun:    r.dryRun,
	}, log)
	if applied != nil {
		s.merge(ctx, r.tableID, res, plan, applied)
	}
	if err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	return nil
}

// merge folds the plan and what was applied of it into res.
func (s *Service) merge(ctx context.Context, tableID string, res *Result, plan *reconcile.Plan, applied *reconcile.ApplyResult) {
	res.Stats = plan.Stats
	res.Stats.Add(applied.Stats)
	res.Coercions = append(res.Coercions, plan.Coercions...)
	res.Relations = append(res.Relations, plan.Relations...)
	res.Relations = append(res.Relations, applied.Relations...)
	for _, e := range append(plan.Errors, applied.Errors...) {
		res.RowErrors = append(res.RowErrors, RowErrorReport{Line: e.Line, Key: e.Key, Stage: e.Stage, Message: e.Message()})
	}

	ctx = context.WithoutCancel(ctx)
	m := s.deps.Metrics
	m.RecordRow(ctx, tableID, telemetry.OutcomeCreated, res.Stats.Created)
	m.RecordRow(ctx, tableID, telemetry.OutcomeUpdated, res.Stats.Updated)
	m.RecordRow(ctx, tableID, telemetry.OutcomeUnchanged, res.Stats.Unchanged)
	m.RecordRow(ctx, tableID, telemetry.OutcomeError, res.Stats.Errors)
}

func (s *Service) schema(ctx context.Context, tableID string) (*reconcile.Schema, error) {
	schema, err := s.schemas.GetOrLoad(ctx, tableID, func(ctx context.Context, tableID string) (*reconcile.Schema, error) {
		fields, err := s.deps.Remote.ListFields(ctx, tableID)
		if err != nil {
			return nil, err
		}
		return reconcile.ResolveSchema(fields), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	return schema, nil
}

// ensureFields creates, as text, every source column and the key field that
// the table lacks.
func (s *Service) ensureFields(ctx context.Context, r resolved, sheet *source.Sheet, schema *reconcile.Schema, log *zap.Logger) ([]string, error) {
	var created []string
	columns := append(sheet.Columns(), s.settings.Sync.KeyField)
	seen := make(map[string]struct{}, len(columns))

	for _, name := range columns {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		if schema.Has(name) {
			if schema.Kind(name).IsRelation() {
				log.Info("Relation field is configured on the table, not created", zap.String("field", name))
			}
			continue
		}
		if r.dryRun {
			log.Info("Field would be created", zap.String("field", name))
			continue
		}

		log.Warn("Creating missing field", zap.String("field", name))
		if _, err := s.deps.Remote.CreateField(ctx, r.tableID, name, bitable.TypeText, nil); err != nil {
			return created, fmt.Errorf("create field %q: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}

// record stores the run in history and archives its report. Failures are
// logged only.
func (s *Service) record(ctx context.Context, res *Result, runErr error, log *zap.Logger) {
	if s.deps.Archive != nil && runErr == nil {
		report, err := json.MarshalIndent(res, "", "  ")
		if err == nil {
			res.ReportKey, err = s.deps.Archive.Save(ctx, res.RunID, report)
		}
		if err != nil {
			log.Warn("Failed to archive run report", zap.Error(err))
		}
	}

	if s.deps.History == nil {
		return
	}

	run := &history.SyncRun{
		ID:         res.RunID,
		TableID:    res.TableID,
		Mode:       res.Mode,
		Source:     res.Source,
		Status:     history.StatusSucceeded,
		Total:      res.Stats.Total,
		Created:    res.Stats.Created,
		Updated:    res.Stats.Updated,
		Unchanged:  res.Stats.Unchanged,
		Errors:     res.Stats.Errors,
		ReportKey:  res.ReportKey,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Events:     events(res),
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	}
	if err := s.deps.History.Save(ctx, run); err != nil {
		log.Warn("Failed to record run history", zap.Error(err))
	}
}

func events(res *Result) []history.RunEvent {
	var out []history.RunEvent
	for _, c := range res.Coercions {
		if c.Result != reconcile.CoercionKeptOriginal {
			continue
		}
		out = append(out, history.RunEvent{Kind: history.EventCoercion, Line: c.Line, Key: c.Key, Field: c.Field, Value: c.Raw, Result: string(c.Result)})
	}
	for _, rel := range res.Relations {
		out = append(out, history.RunEvent{Kind: history.EventRelation, Line: rel.Line, Key: rel.Key, Field: rel.Field, Value: rel.Value, Result: string(rel.Result), Message: rel.Error})
	}
	for _, e := range res.RowErrors {
		out = append(out, history.RunEvent{Kind: history.EventRowError, Line: e.Line, Key: e.Key, Result: e.Stage, Message: e.Message})
	}
	return out
}

// Report returns the archived report of runID.
func (s *Service) Report(ctx context.Context, runID string) ([]byte, error) {
	if s.deps.Archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.deps.Archive.Load(ctx, runID)
}

// Runs lists recorded runs, newest first.
func (s *Service) Runs(ctx context.Context, tableID string, limit int) ([]history.SyncRun, error) {
	if s.deps.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.deps.History.List(ctx, tableID, limit)
}

// GetRun returns one recorded run with its events.
func (s *Service) GetRun(ctx context.Context, runID string) (*history.SyncRun, error) {
	if s.deps.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.deps.History.Get(ctx, runID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
