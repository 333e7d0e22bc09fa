package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andywolf/toolfence/internal/logstore"
)

// blockedExitCode signals to the host that the evaluated call must not
// proceed.
const blockedExitCode = 2

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a host event through the pipeline",
	Long: `Record one agent lifecycle event. Tool payloads are redacted,
truncated, classified, checked against policy, and appended to today's
log partition.

For before_tool_call the policy decision is printed as JSON; when the
decision demands a block, the exit code is 2 so hosts can gate the call.

Example:
  toolfence record --event session_start --session s1 --agent claude
  toolfence record --event before_tool_call --tool bash --params '{"cmd":"ls"}'
  toolfence record --event after_tool_call --tool bash --status ok --params '{"output":"..."}'`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().String("event", "", "Event kind: session_start, session_end, before_tool_call, after_tool_call")
	recordCmd.Flags().String("session", "", "Session ID (generated when empty)")
	recordCmd.Flags().String("agent", "", "Agent ID")
	recordCmd.Flags().String("tool", "", "Tool name (tool events)")
	recordCmd.Flags().String("params", "", "Tool parameters or result as JSON")
	recordCmd.Flags().String("status", "", "Tool outcome for after_tool_call: ok or error")
	_ = recordCmd.MarkFlagRequired("event")
}

func runRecord(cmd *cobra.Command, args []string) error {
	event, _ := cmd.Flags().GetString("event")
	session, _ := cmd.Flags().GetString("session")
	agent, _ := cmd.Flags().GetString("agent")
	tool, _ := cmd.Flags().GetString("tool")
	paramsStr, _ := cmd.Flags().GetString("params")
	status, _ := cmd.Flags().GetString("status")

	if session == "" {
		session = uuid.New().String()
	}

	var params any
	if paramsStr != "" {
		if err := json.Unmarshal([]byte(paramsStr), &params); err != nil {
			return fmt.Errorf("malformed --params JSON: %w", err)
		}
	}

	f, cleanup, err := newFence(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	switch event {
	case "session_start":
		f.RecordSessionStart(session, agent)
	case "session_end":
		f.RecordSessionEnd(session, agent)
	case "before_tool_call":
		if tool == "" {
			return fmt.Errorf("--tool is required for before_tool_call")
		}
		decision := f.CheckCall(session, agent, tool, params)
		f.RecordToolCall(session, agent, tool, params)

		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(map[string]any{
			"blocked": decision.Blocked(),
			"reasons": decision.Reasons,
			"enforce": decision.Enforce,
		}); err != nil {
			return err
		}
		if decision.Blocked() {
			cleanup()
			os.Exit(blockedExitCode)
		}
	case "after_tool_call":
		if tool == "" {
			return fmt.Errorf("--tool is required for after_tool_call")
		}
		st := logstore.Status(status)
		if st != "" && st != logstore.StatusOK && st != logstore.StatusError {
			return fmt.Errorf("invalid --status %q (want ok or error)", status)
		}
		f.RecordToolResult(session, agent, tool, st, params)
	default:
		return fmt.Errorf("unknown --event %q", event)
	}
	return nil
}
