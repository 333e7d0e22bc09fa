package policy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts a tool name to canonical form for list
// membership checks: NFKC normalization, lowercasing, whitespace
// trimming, and removal of non-printable characters. This keeps
// fullwidth, ligature, and zero-width variants of a denied tool name
// from evading the deny list.
func NormalizeName(s string) string {
	normalized := norm.NFKC.String(s)
	normalized = strings.ToLower(normalized)
	normalized = strings.TrimSpace(normalized)
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) && !unicode.IsControl(r) {
			return r
		}
		return -1
	}, normalized)
}
