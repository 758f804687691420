package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkCmd validates the source headers against the table fields.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every source column exists in the table",
	Long: `Compare the headers of the source zones with the fields of the target
table and report every column the table lacks, with its cell reference.
Exits with an error when an issue is found.`,
	RunE: runCheck,
}

func init() {
	addSourceFlags(checkCmd)
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *services) error {
		report, err := a.service.Check(ctx, sourceRequest())
		if err != nil {
			return err
		}

		for _, issue := range report.Issues {
			a.log.Warn(issue.Message,
				zap.String("zone", issue.Zone),
				zap.String("location", issue.Location),
				zap.String("field", issue.Field),
			)
		}
		if !report.Passed() {
			return fmt.Errorf("header check failed: %d issue(s)", len(report.Issues))
		}
		a.log.Info("Header check passed", zap.String("table_id", report.TableID))
		return nil
	})
}
