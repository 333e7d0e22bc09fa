// Package fence composes the event-processing pipeline: redaction,
// truncation, finding extraction, policy evaluation, anomaly detection,
// and the append-only log. It is the single entry point hosts use to
// record agent activity and to gate tool calls before they execute.
package fence

import (
	"github.com/google/uuid"

	"github.com/andywolf/toolfence/internal/anomaly"
	"github.com/andywolf/toolfence/internal/findings"
	"github.com/andywolf/toolfence/internal/logstore"
	"github.com/andywolf/toolfence/internal/payload"
	"github.com/andywolf/toolfence/internal/policy"
	"github.com/andywolf/toolfence/internal/redact"
	"github.com/andywolf/toolfence/internal/skillscan"
)

// Sink receives a copy of selected entries after they are appended
// locally. Mirror failures must never block the pipeline.
type Sink interface {
	Send(logstore.Entry)
}

// Options wires a Fence's collaborators. Store and Policy are required;
// the rest default to disabled/no-op behavior.
type Options struct {
	Store           *logstore.Store
	Policy          *policy.Engine
	Redactor        *redact.Redactor
	Anomaly         *anomaly.Detector
	Scanner         *skillscan.Scanner
	Mirror          Sink
	MaxPayloadBytes int
}

// Fence is the orchestrator. Safe for concurrent use; ordering of
// appends is guaranteed by the store's writer queue.
type Fence struct {
	store    *logstore.Store
	policy   *policy.Engine
	redactor *redact.Redactor
	anomaly  *anomaly.Detector
	scanner  *skillscan.Scanner
	mirror   Sink
	maxBytes int
}

// New creates a Fence from options, filling in inert defaults for
// optional collaborators.
func New(opts Options) *Fence {
	if opts.Redactor == nil {
		opts.Redactor = redact.New(false)
	}
	if opts.Anomaly == nil {
		opts.Anomaly = anomaly.New(anomaly.Config{})
	}
	if opts.MaxPayloadBytes <= 0 {
		opts.MaxPayloadBytes = 8192
	}
	return &Fence{
		store:    opts.Store,
		policy:   opts.Policy,
		redactor: opts.Redactor,
		anomaly:  opts.Anomaly,
		scanner:  opts.Scanner,
		mirror:   opts.Mirror,
		maxBytes: opts.MaxPayloadBytes,
	}
}

// RecordSessionStart logs the beginning of an agent session.
func (f *Fence) RecordSessionStart(sessionID, agentID string) {
	f.append(logstore.Entry{
		Event:     logstore.EventSessionStart,
		SessionID: sessionID,
		AgentID:   agentID,
	})
}

// RecordSessionEnd logs the end of an agent session.
func (f *Fence) RecordSessionEnd(sessionID, agentID string) {
	f.append(logstore.Entry{
		Event:     logstore.EventSessionEnd,
		SessionID: sessionID,
		AgentID:   agentID,
	})
}

// RecordToolCall runs the full pipeline for one tool invocation and
// appends the finalized entry: redact, truncate, extract findings,
// apply policy findings, run anomaly checks, resolve severity.
func (f *Fence) RecordToolCall(sessionID, agentID, tool string, params any) logstore.Entry {
	return f.recordTool(logstore.EventToolCall, sessionID, agentID, tool, "", params)
}

// RecordToolResult logs the outcome of a tool invocation through the
// same pipeline.
func (f *Fence) RecordToolResult(sessionID, agentID, tool string, status logstore.Status, result any) logstore.Entry {
	return f.recordTool(logstore.EventToolResult, sessionID, agentID, tool, status, result)
}

func (f *Fence) recordTool(event logstore.EventType, sessionID, agentID, tool string, status logstore.Status, params any) logstore.Entry {
	// Order matters: redaction first so no unredacted secret can reach
	// the store, then truncation to bound size, then classification over
	// the sanitized form.
	sanitized := f.redactor.Apply(params)
	bounded := payload.Truncate(sanitized, f.maxBytes)

	tags, severity := findings.FromPayload(bounded)

	if f.policy != nil {
		decision := f.policy.Evaluate(tool, tags)
		if len(decision.Reasons) > 0 {
			tags = findings.Merge(tags, decision.Reasons...)
			severity = logstore.SeverityHigh
		}
	}

	anomalyTags := f.anomaly.Check(tool, payload.SerializedSize(bounded))
	if len(anomalyTags) > 0 {
		tags = findings.Merge(tags, anomalyTags...)
		if severity == "" {
			severity = logstore.SeverityMedium
		}
	}

	entry := logstore.Entry{
		Event:     event,
		SessionID: sessionID,
		AgentID:   agentID,
		Tool:      tool,
		Status:    status,
		Severity:  severity,
		Findings:  tags,
		Payload:   bounded,
	}
	return f.append(entry)
}

// CheckCall evaluates a not-yet-executed tool call against the current
// policy, independent of persistence. When the decision demands a block,
// a policy_block entry is logged at high severity regardless of whether
// the caller honors the decision.
func (f *Fence) CheckCall(sessionID, agentID, tool string, params any) policy.Decision {
	if f.policy == nil {
		return policy.Decision{}
	}

	tags, _ := findings.FromPayload(f.redactor.Apply(params))
	decision := f.policy.Evaluate(tool, tags)

	if decision.Blocked() {
		f.append(logstore.Entry{
			Event:     logstore.EventPolicyBlock,
			SessionID: sessionID,
			AgentID:   agentID,
			Tool:      tool,
			Severity:  logstore.SeverityHigh,
			Findings:  append([]string{}, decision.Reasons...),
		})
	}
	return decision
}

// RecordProcessScan classifies a process-listing text line by line and
// logs the hits as one process_scan entry. Clean listings log nothing.
func (f *Fence) RecordProcessScan(listing string) {
	tags := findings.ScanProcessList(listing)
	if len(tags) == 0 {
		return
	}
	f.append(logstore.Entry{
		Event:    logstore.EventProcessScan,
		Severity: logstore.SeverityHigh,
		Findings: tags,
		Payload:  payload.Truncate(redact.String(listing), f.maxBytes),
	})
}

// RecordNetworkScan classifies a connection-listing text line by line
// and logs the hits as one network_scan entry.
func (f *Fence) RecordNetworkScan(listing string) {
	tags := findings.ScanConnections(listing)
	if len(tags) == 0 {
		return
	}
	f.append(logstore.Entry{
		Event:    logstore.EventNetworkScan,
		Severity: logstore.SeverityMedium,
		Findings: tags,
		Payload:  payload.Truncate(redact.String(listing), f.maxBytes),
	})
}

func (f *Fence) append(e logstore.Entry) logstore.Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Findings == nil {
		e.Findings = []string{}
	}
	f.store.Append(e)

	if f.mirror != nil && (e.Severity == logstore.SeverityHigh || e.Severity == logstore.SeverityCritical) {
		f.mirror.Send(e)
	}
	return e
}

// Entries queries today's partition. See logstore.Store.ReadLatest.
func (f *Fence) Entries(limit int, filter logstore.Filter) ([]logstore.Entry, error) {
	return f.store.ReadLatest(limit, filter)
}

// Policy returns the current policy.
func (f *Fence) Policy() policy.Policy {
	return f.policy.Get()
}

// SetPolicy replaces the process-wide policy and persists it.
func (f *Fence) SetPolicy(p policy.Policy) {
	f.policy.Replace(p)
}

// ScanAll runs a full skill scan across the configured roots.
func (f *Fence) ScanAll() (map[string]skillscan.ScanResult, error) {
	if f.scanner == nil {
		return map[string]skillscan.ScanResult{}, nil
	}
	return f.scanner.ScanAll()
}

// ScanOne scans a single named skill.
func (f *Fence) ScanOne(name string) (skillscan.ScanResult, bool) {
	if f.scanner == nil {
		return skillscan.ScanResult{}, false
	}
	return f.scanner.ScanOne(name)
}

// LastScan returns the snapshot from the most recent full scan.
func (f *Fence) LastScan() map[string]skillscan.ScanResult {
	if f.scanner == nil {
		return nil
	}
	return f.scanner.LastScan()
}

// Close drains the store's write queue.
func (f *Fence) Close() error {
	return f.store.Close()
}
