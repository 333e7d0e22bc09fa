// Package policy holds the process-wide allow/deny/enforce policy and
// evaluates tool calls against it before they execute.
package policy

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Finding tags produced by policy evaluation. Violations are rated high
// regardless of which rule fired.
const (
	TagDenyTool      = "policy_deny_tool"
	TagAllowlistMiss = "policy_allowlist_miss"
	TagDenyFinding   = "policy_deny_finding"
)

// Policy is the allow/deny/enforce configuration. An empty AllowTools
// list means allow-all. A later Replace fully supersedes the prior value;
// policies are not versioned.
type Policy struct {
	DenyTools    []string `json:"denyTools"`
	AllowTools   []string `json:"allowTools"`
	DenyFindings []string `json:"denyFindings"`
	Enforce      bool     `json:"enforce"`
}

// Decision is the result of evaluating a tool call against the policy.
type Decision struct {
	// Reasons is the ordered set of policy finding tags that applied.
	Reasons []string

	// Enforce mirrors the policy's enforce flag. A caller must block the
	// call when Reasons is non-empty and Enforce is true; without
	// Enforce the decision is advisory.
	Enforce bool
}

// Blocked reports whether the decision demands that the call be blocked.
func (d Decision) Blocked() bool {
	return d.Enforce && len(d.Reasons) > 0
}

// Engine guards the single in-memory policy value and persists changes
// to a side file. Reads and writes may race; callers must not assume
// strict ordering between a concurrent Replace and Evaluate.
type Engine struct {
	mu   sync.RWMutex
	cur  Policy
	path string
}

// NewEngine creates an Engine persisting to path. An existing policy
// file is loaded; a missing or malformed file leaves the default
// (allow-all, non-enforcing) policy in place with a warning.
func NewEngine(path string) *Engine {
	e := &Engine{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("policy: read %s: %v, using defaults", path, err)
		}
		return e
	}

	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("policy: parse %s: %v, using defaults", path, err)
		return e
	}
	e.cur = p
	return e
}

// Get returns a copy of the current policy.
func (e *Engine) Get() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cur
}

// Replace swaps in a new policy and persists it. The in-memory value is
// updated even when persistence fails; the failure is logged as a
// warning and never surfaced to the caller.
func (e *Engine) Replace(p Policy) {
	e.mu.Lock()
	e.cur = p
	e.mu.Unlock()

	if err := e.persist(p); err != nil {
		log.Printf("policy: persist %s: %v", e.path, err)
	}
}

func (e *Engine) persist(p Policy) error {
	if e.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0700); err != nil {
		return fmt.Errorf("failed to create policy directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	if err := os.WriteFile(e.path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}
	return nil
}

// Evaluate checks a tool name and the findings collected so far against
// the current policy. Tool names are normalized (NFKC, lowercased) on
// both sides before matching, so homoglyph variants of a denied name do
// not slip through. Pure read; no state is mutated.
func (e *Engine) Evaluate(tool string, findingsSoFar []string) Decision {
	e.mu.RLock()
	p := e.cur
	e.mu.RUnlock()

	d := Decision{Enforce: p.Enforce}
	name := NormalizeName(tool)

	if containsNormalized(p.DenyTools, name) {
		d.Reasons = append(d.Reasons, TagDenyTool)
	}
	if len(p.AllowTools) > 0 && !containsNormalized(p.AllowTools, name) {
		d.Reasons = append(d.Reasons, TagAllowlistMiss)
	}

	denied := make(map[string]bool, len(p.DenyFindings))
	for _, f := range p.DenyFindings {
		denied[f] = true
	}
	for _, f := range findingsSoFar {
		if denied[f] {
			// Reasons is a set; one matching tag is enough.
			d.Reasons = append(d.Reasons, TagDenyFinding)
			break
		}
	}

	return d
}

func containsNormalized(list []string, normalizedName string) bool {
	for _, item := range list {
		if NormalizeName(item) == normalizedName {
			return true
		}
	}
	return false
}
