// Package redact masks sensitive data in tool payloads before they reach
// persistence. It rewrites emails, phone numbers, and token-shaped strings
// in place, and blanks the entire value of any map key whose name suggests
// a secret.
package redact

import (
	"regexp"
)

// Replacement markers. These are stable strings so downstream consumers
// (and tests) can assert on them.
const (
	EmailMarker = "[REDACTED_EMAIL]"
	PhoneMarker = "[REDACTED_PHONE]"
	TokenMarker = "[REDACTED_TOKEN]"
	ValueMarker = "[REDACTED]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Phone-shaped digit runs: optional country code, separators allowed.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)

	// Two recognized token families plus bearer-prefixed blobs.
	tokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`),
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}`),
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._/+=-]{16,}`),
	}

	// Map keys whose values are blanked wholesale, without recursing.
	sensitiveKeyPattern = regexp.MustCompile(`(?i)token|secret|password|auth|key|cookie|session`)
)

// Redactor rewrites sensitive content in arbitrary JSON-like values.
// It holds no mutable state and is safe for concurrent use.
type Redactor struct {
	enabled bool
}

// New creates a Redactor. When enabled is false, Apply passes values
// through unchanged; callers still truncate and classify afterward.
func New(enabled bool) *Redactor {
	return &Redactor{enabled: enabled}
}

// Enabled reports whether redaction is active.
func (r *Redactor) Enabled() bool {
	return r.enabled
}

// Apply returns a redacted copy of v. The input is never modified.
// Scalars other than strings pass through unchanged.
func (r *Redactor) Apply(v any) any {
	if !r.enabled {
		return v
	}
	return redactValue(v)
}

func redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			if sensitiveKeyPattern.MatchString(k) {
				out[k] = ValueMarker
				continue
			}
			out[k] = redactValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = redactValue(elem)
		}
		return out
	default:
		return val
	}
}

// String rewrites sensitive substrings in a single string.
// Token patterns run before the phone pattern so digit-heavy tokens are
// not half-masked as phone numbers.
func String(s string) string {
	for _, p := range tokenPatterns {
		s = p.ReplaceAllString(s, TokenMarker)
	}
	s = emailPattern.ReplaceAllString(s, EmailMarker)
	s = phonePattern.ReplaceAllString(s, PhoneMarker)
	return s
}

// IsSensitiveKey reports whether a map key matches the sensitive-name
// pattern used by Apply.
func IsSensitiveKey(k string) bool {
	return sensitiveKeyPattern.MatchString(k)
}
