package cmd

import (
	"fmt"
	"os"

	"table-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is reported as the service version of exported metrics.
var Version = "dev"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "table-sync",
	Short: "Spreadsheet to bitable sync",
	Long: `table-sync reconciles the rows of a CSV source against the records of a
bitable table, creating or updating records so the table matches the source.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with debug level gives ISO8601 timestamps for CLI users
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
