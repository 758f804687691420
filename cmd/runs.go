package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runsLimit int

// runsCmd is the parent command for run history queries.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run history",
	Long:  `Query the runs recorded in the history database (database.enabled must be set).`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *services) error {
			runs, err := a.service.Runs(ctx, tableID, runsLimit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				a.log.Info("Run",
					zap.String("run_id", r.ID),
					zap.String("table_id", r.TableID),
					zap.String("status", r.Status),
					zap.Time("started_at", r.StartedAt),
					zap.Duration("duration", r.Duration()),
					zap.Int("created", r.Created),
					zap.Int("updated", r.Updated),
					zap.Int("errors", r.Errors),
				)
			}
			if len(runs) == 0 {
				a.log.Info("No runs recorded")
			}
			return nil
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one run with its events as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *services) error {
			run, err := a.service.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		})
	},
}

func init() {
	runsListCmd.Flags().StringVarP(&tableID, "table", "t", "", "Only runs of this table")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 0, "Maximum runs to list (default 50)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	RootCmd.AddCommand(runsCmd)
}
