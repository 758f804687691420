package flush

import (
	"context"
	"fmt"

	"table-sync/core/reconcile"
	"table-sync/core/source"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Issue types.
const IssueFieldMissing = "field_missing"

// Source zones an issue can come from.
const (
	ZoneFrozen = "frozen"
	ZoneData   = "data"
)

// Issue is one header problem.
type Issue struct {
	Type     string `json:"type"`
	Zone     string `json:"zone"`
	Location string `json:"location"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// CheckReport lists the header problems of a source against a table.
type CheckReport struct {
	TableID string  `json:"table_id"`
	Source  string  `json:"source"`
	Issues  []Issue `json:"issues"`
}

// Passed reports whether no issue was found.
func (r *CheckReport) Passed() bool { return len(r.Issues) == 0 }

// Check compares the source headers with the table fields. Data-zone
// headers are reported before frozen-zone ones.
func (s *Service) Check(ctx context.Context, req Request) (*CheckReport, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	var (
		sheet  *source.Sheet
		schema *reconcile.Schema
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rc, err := source.Open(gctx, r.source, s.deps.Objects)
		if err != nil {
			return fmt.Errorf("load source: %w", err)
		}
		defer rc.Close()
		sheet, err = source.ReadHeaders(rc, r.opts)
		if err != nil {
			return fmt.Errorf("load source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		schema, err = s.schema(gctx, r.tableID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &CheckReport{TableID: r.tableID, Source: r.source, Issues: []Issue{}}
	for _, h := range sheet.DataHeaders {
		if h.Name == "" || schema.Has(h.Name) {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Type:     IssueFieldMissing,
			Zone:     ZoneData,
			Location: h.Location(),
			Field:    h.Name,
			Message:  fmt.Sprintf("field %q does not exist in the table", h.Name),
		})
	}
	for _, h := range sheet.FrozenHeaders {
		if h.Name == "" || schema.Has(h.Name) {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Type:     IssueFieldMissing,
			Zone:     ZoneFrozen,
			Location: h.Location(),
			Field:    h.Name,
			Message:  fmt.Sprintf("frozen field %q does not exist in the table", h.Name),
		})
	}

	s.logger.Info("Header check finished",
		zap.String("table_id", r.tableID),
		zap.Int("issues", len(report.Issues)),
	)
	return report, nil
}
