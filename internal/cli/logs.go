package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andywolf/toolfence/internal/export"
	"github.com/andywolf/toolfence/internal/logstore"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query today's audit log",
	Long: `Query the current day's audit log partition with optional filters.

The query scope is intentionally limited to the current (UTC) day.

Example:
  toolfence logs --limit 50 --severity high
  toolfence logs --tool bash --format csv > report.csv`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().Int("limit", 100, "Maximum number of entries to return")
	logsCmd.Flags().String("severity", "", "Filter by exact severity (low, medium, high, critical)")
	logsCmd.Flags().String("tool", "", "Filter by exact tool name")
	logsCmd.Flags().String("session", "", "Filter by exact session ID")
	logsCmd.Flags().String("since", "", "Minimum timestamp (RFC3339) or duration (e.g., 1h)")
	logsCmd.Flags().String("format", "json", "Output format: json or csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	f, cleanup, err := newFence(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	limit, _ := cmd.Flags().GetInt("limit")
	severity, _ := cmd.Flags().GetString("severity")
	tool, _ := cmd.Flags().GetString("tool")
	session, _ := cmd.Flags().GetString("session")
	sinceStr, _ := cmd.Flags().GetString("since")
	format, _ := cmd.Flags().GetString("format")

	var since time.Time
	if sinceStr != "" {
		if dur, err := time.ParseDuration(sinceStr); err == nil {
			since = time.Now().Add(-dur)
		} else {
			since, err = time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				return fmt.Errorf("invalid --since value: %s", sinceStr)
			}
		}
	}

	entries, err := f.Entries(limit, logstore.Filter{
		Severity:  logstore.Severity(severity),
		Tool:      tool,
		SessionID: session,
		Since:     since,
	})
	if err != nil {
		return fmt.Errorf("failed to query log: %w", err)
	}

	switch format {
	case "json":
		return export.JSON(os.Stdout, entries)
	case "csv":
		return export.CSV(os.Stdout, entries)
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", format)
	}
}
