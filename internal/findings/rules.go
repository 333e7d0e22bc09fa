// Package findings extracts risk signals from serialized tool payloads,
// file contents, and monitor hit lists. Each rule pairs a stable tag with
// a compiled pattern; rules are evaluated in table order and matching
// tags are collected as a deduplicated, insertion-ordered set.
package findings

import (
	"regexp"
)

// Tags shared across the event pipeline and the skill scanner.
const (
	TagShellPipeline        = "dangerous_shell_pipeline"
	TagBase64Exec           = "base64_decode_exec"
	TagRawIP                = "raw_ip_detected"
	TagSensitiveFile        = "sensitive_file_access"
	TagCustomPort           = "custom_port_detected"
	TagReverseShell         = "reverse_shell_pattern"
	TagCryptoMiner          = "crypto_miner"
	TagPipeToShell          = "pipe_to_shell"
	TagRawIPConnection      = "raw_ip_connection"
	TagCustomPortConnection = "custom_port_connection"
)

// Rule pairs a finding tag with the pattern that fires it.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// textRules apply to whole serialized payloads and to file contents.
var textRules = []Rule{
	{
		// Download-and-execute pipelines, bash -c, and encoded powershell.
		Tag:     TagShellPipeline,
		Pattern: regexp.MustCompile(`(?i)\b(curl|wget)\b[^|]*\|\s*(ba)?sh\b|\bbash\s+-c\b|\bpowershell\s+-enc\b`),
	},
	{
		// base64 decode invocations and decode-then-eval idioms.
		Tag:     TagBase64Exec,
		Pattern: regexp.MustCompile(`(?i)\bbase64\s+(-d|--decode)\b|\batob\s*\(|b64decode\s*\(|Convert\.FromBase64String`),
	},
	{
		Tag:     TagRawIP,
		Pattern: regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	},
	{
		Tag:     TagSensitiveFile,
		Pattern: regexp.MustCompile(`(?i)\.env\b|settings\.json|(^|[\s"'/])\.ssh/|id_rsa|id_ed25519|\.pem\b|credentials`),
	},
	{
		Tag:     TagCustomPort,
		Pattern: regexp.MustCompile(`:\d{4,5}\b`),
	},
}

// processRules apply per line of a process-listing hit list.
var processRules = []Rule{
	{
		Tag:     TagReverseShell,
		Pattern: regexp.MustCompile(`(?i)\bnc\s+(-\S*\s+)*-e\b|\bbash\s+-i\b|\bpowershell\s+-enc\b`),
	},
	{
		Tag:     TagCryptoMiner,
		Pattern: regexp.MustCompile(`(?i)\b(xmrig|minerd|cpuminer|cgminer|bfgminer|ethminer|nicehash)\b`),
	},
	{
		Tag:     TagPipeToShell,
		Pattern: regexp.MustCompile(`(?i)\b(curl|wget)\b[^|]*\|\s*(ba)?sh\b`),
	},
}

// networkRules apply per line of a connection-listing hit list.
var networkRules = []Rule{
	{
		Tag:     TagRawIPConnection,
		Pattern: regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d+\b`),
	},
	{
		Tag:     TagCustomPortConnection,
		Pattern: regexp.MustCompile(`:\d{4,5}\b`),
	},
}

// highClassTags escalate severity to high on their own.
var highClassTags = map[string]bool{
	TagShellPipeline: true,
	TagBase64Exec:    true,
	TagSensitiveFile: true,
}

// IsHighClass reports whether a tag escalates severity to high by itself.
func IsHighClass(tag string) bool {
	return highClassTags[tag]
}
