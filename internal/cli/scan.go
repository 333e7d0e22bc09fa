package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [skill]",
	Short: "Statically scan skill bundles for dangerous patterns",
	Long: `Scan installed skill bundles for dangerous patterns using the same
rule tables as the event pipeline. With no argument, every skill under
the configured roots is scanned; with a name, only that skill.

Example:
  toolfence scan
  toolfence scan web-helper`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	f, cleanup, err := newFence(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(args) == 1 {
		result, ok := f.ScanOne(args[0])
		if !ok {
			return fmt.Errorf("skill %q not found under the configured roots", args[0])
		}
		return enc.Encode(result)
	}

	results, err := f.ScanAll()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return enc.Encode(results)
}
