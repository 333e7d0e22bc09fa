package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/andywolf/toolfence/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect or replace the tool-call policy",
}

var policyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current policy as JSON",
	RunE:  runPolicyGet,
}

var policySetCmd = &cobra.Command{
	Use:   "set [file]",
	Short: "Replace the policy from a JSON file or stdin",
	Long: `Replace the process-wide policy. The new policy fully supersedes the
prior value and is persisted immediately.

Example:
  toolfence policy set policy.json
  echo '{"denyTools":["exec"],"enforce":true}' | toolfence policy set`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPolicySet,
}

func init() {
	policyCmd.AddCommand(policyGetCmd)
	policyCmd.AddCommand(policySetCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyGet(cmd *cobra.Command, args []string) error {
	f, cleanup, err := newFence(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(f.Policy())
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read policy file: %w", err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read policy from stdin: %w", err)
		}
	}

	var p policy.Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("malformed policy JSON: %w", err)
	}

	f, cleanup, err := newFence(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	f.SetPolicy(p)
	fmt.Println("policy updated")
	return nil
}
