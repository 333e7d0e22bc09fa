package findings

import (
	"encoding/json"
	"strings"

	"github.com/andywolf/toolfence/internal/logstore"
)

// Extract runs the text rule table against raw text and returns the tags
// of every rule that matched, deduplicated in table order. It holds no
// state: running it twice on the same text yields the same set.
func Extract(text string) []string {
	return apply(textRules, text)
}

// FromPayload serializes a payload, extracts findings from the resulting
// text, and derives a conservative severity: high if any high-class rule
// fired, medium if anything fired, unset otherwise.
func FromPayload(v any) ([]string, logstore.Severity) {
	tags := Extract(serialize(v))
	return tags, DeriveSeverity(tags)
}

// DeriveSeverity maps a finding set to the worst severity it implies.
// Policy findings are rated by the policy engine, not here.
func DeriveSeverity(tags []string) logstore.Severity {
	if len(tags) == 0 {
		return ""
	}
	for _, tag := range tags {
		if IsHighClass(tag) {
			return logstore.SeverityHigh
		}
	}
	return logstore.SeverityMedium
}

// ScanProcessList applies the process rule table to each line of a
// process-listing text and returns the union of matching tags.
func ScanProcessList(text string) []string {
	return applyPerLine(processRules, text)
}

// ScanConnections applies the network rule table to each line of a
// connection-listing text and returns the union of matching tags.
func ScanConnections(text string) []string {
	return applyPerLine(networkRules, text)
}

func apply(rules []Rule, text string) []string {
	var tags []string
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

func applyPerLine(rules []Rule, text string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		for _, r := range rules {
			if seen[r.Tag] || !r.Pattern.MatchString(line) {
				continue
			}
			seen[r.Tag] = true
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

// Merge appends tags from extra onto base, preserving insertion order and
// dropping duplicates already present.
func Merge(base []string, extra ...string) []string {
	seen := make(map[string]bool, len(base))
	for _, t := range base {
		seen[t] = true
	}
	for _, t := range extra {
		if seen[t] {
			continue
		}
		seen[t] = true
		base = append(base, t)
	}
	return base
}

func serialize(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
