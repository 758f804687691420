package cmd

import (
	"context"
	"encoding/json"
	"os"

	"table-sync/core/reconcile"
	"table-sync/feature/flush"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags shared by flush and check
	sourcePath string
	frozenZone string
	dataZone   string
	tableID    string

	syncMode   string
	dryRunSync bool
	jsonOutput bool
)

// flushCmd syncs one source into one table.
var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Sync a source into a bitable table",
	Long: `Sync the rows of a CSV source into a bitable table.

Rows are matched to records by their identity key. Missing records are
created, differing records updated and identical ones left alone.

Examples:
  # Sync the configured source into the configured table
  table-sync flush

  # Plan only, against another table
  table-sync flush --table tblXXXX --dry-run

  # Create missing columns first, then sync
  table-sync flush --file data.csv --mode field`,
	RunE: runFlush,
}

func init() {
	addSourceFlags(flushCmd)
	flushCmd.Flags().StringVar(&syncMode, "mode", "", "Sync mode: record or field (default from config)")
	flushCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Plan without writing")
	flushCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run result as JSON")

	RootCmd.AddCommand(flushCmd)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&sourcePath, "file", "f", "", "Source CSV path or s3://bucket/key (default from config)")
	cmd.Flags().StringVar(&frozenZone, "frozen", "", "Frozen zone, start:end or a single index")
	cmd.Flags().StringVar(&dataZone, "data", "", "Data zone, start:end or a single index")
	cmd.Flags().StringVarP(&tableID, "table", "t", "", "Target table id (default from config)")
}

func sourceRequest() flush.Request {
	return flush.Request{
		Source:     sourcePath,
		TableID:    tableID,
		FrozenZone: frozenZone,
		DataZone:   dataZone,
	}
}

func runFlush(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *services) error {
		req := sourceRequest()
		req.Mode = syncMode
		req.DryRun = dryRunSync

		res, err := a.service.Run(ctx, req)
		if err != nil {
			if res != nil && res.Stats.Total > 0 {
				printRunReport(a.log, res)
			}
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printRunReport(a.log, res)
		return nil
	})
}

// printRunReport prints a formatted run report using logger.
func printRunReport(l *zap.Logger, res *flush.Result) {
	s := res.Summary
	l.Info("Sync report",
		zap.String("run_id", res.RunID),
		zap.String("table_id", res.TableID),
		zap.Bool("dry_run", res.DryRun),
		zap.Int("total", res.Stats.Total),
		zap.Int("created", res.Stats.Created),
		zap.Int("updated", res.Stats.Updated),
		zap.Int("unchanged", res.Stats.Unchanged),
		zap.Int("errors", res.Stats.Errors),
	)

	if res.DryRun {
		l.Info("Dry-run mode: No changes were made.",
			zap.Int("planned_creates", s.Creates),
			zap.Int("planned_updates", s.Updates),
		)
	}
	if len(res.NewFields) > 0 {
		l.Info("Fields created", zap.Strings("fields", res.NewFields))
	}
	if s.KeptOriginal > 0 {
		l.Warn("Number cells kept as text", zap.Int("count", s.KeptOriginal))
	}

	// Show a sample of the problems (max 5 each)
	const maxShow = 5
	shown := 0
	for _, rel := range res.Relations {
		if rel.Result == reconcile.RelationApplied || shown == maxShow {
			continue
		}
		shown++
		l.Warn("Relation not written",
			zap.Int("line", rel.Line),
			zap.String("field", rel.Field),
			zap.String("value", rel.Value),
			zap.String("result", string(rel.Result)),
		)
	}
	for i, e := range res.RowErrors {
		if i == maxShow {
			l.Warn("Additional row errors not shown", zap.Int("count", len(res.RowErrors)-maxShow))
			break
		}
		l.Error("Row failed",
			zap.Int("line", e.Line),
			zap.String("key", e.Key),
			zap.String("stage", e.Stage),
			zap.String("error", e.Message),
		)
	}
	if res.ReportKey != "" {
		l.Info("Report archived", zap.String("key", res.ReportKey))
	}
}
