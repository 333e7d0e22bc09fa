// Package logstore provides the append-only telemetry log: a structured
// entry model, per-day JSONL partition files, and a bounded query over
// the current day's partition.
package logstore

import (
	"time"
)

// EventType identifies the category of a logged event.
type EventType string

const (
	// EventSessionStart marks the beginning of an agent session.
	EventSessionStart EventType = "session_start"
	// EventSessionEnd marks the end of an agent session.
	EventSessionEnd EventType = "session_end"
	// EventToolCall is a tool invocation by the agent.
	EventToolCall EventType = "tool_call"
	// EventToolResult is the result returned from a tool invocation.
	EventToolResult EventType = "tool_result"
	// EventProcessScan is a hit list from a process-monitor sweep.
	EventProcessScan EventType = "process_scan"
	// EventNetworkScan is a hit list from a network-monitor sweep.
	EventNetworkScan EventType = "network_scan"
	// EventPolicyBlock records that policy evaluation demanded a block.
	EventPolicyBlock EventType = "policy_block"
	// EventParseError is synthesized at read time for a partition line
	// that failed to parse; it is never written by this package.
	EventParseError EventType = "parse_error"
)

// Severity is a coarse ordinal summarizing the worst finding on an entry.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status reports whether the underlying tool call succeeded.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one line of the telemetry log. Entries are immutable once
// appended; the store never rewrites or deletes them.
type Entry struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`

	// ID is a unique identifier for cross-referencing from reports.
	ID string `json:"id,omitempty"`

	// Event categorizes the entry.
	Event EventType `json:"event"`

	// SessionID identifies the agent session, when known.
	SessionID string `json:"sessionId,omitempty"`

	// AgentID identifies the agent, when known.
	AgentID string `json:"agentId,omitempty"`

	// Tool is the tool name for tool events.
	Tool string `json:"tool,omitempty"`

	// Status is the tool outcome for tool_result events.
	Status Status `json:"status,omitempty"`

	// Severity summarizes the worst finding attached to the entry.
	Severity Severity `json:"severity,omitempty"`

	// Findings is the deduplicated set of risk tags, in insertion order.
	Findings []string `json:"findings"`

	// Payload is the sanitized, possibly truncated event payload.
	Payload any `json:"payload,omitempty"`
}

// Filter restricts the entries returned by ReadLatest. Zero-value fields
// do not filter.
type Filter struct {
	// Severity requires an exact severity match.
	Severity Severity

	// Tool requires an exact tool-name match.
	Tool string

	// SessionID requires an exact session match.
	SessionID string

	// Since excludes entries strictly older than this timestamp.
	Since time.Time
}

func (f Filter) matches(e Entry) bool {
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.Tool != "" && e.Tool != f.Tool {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
