// Package payload bounds the size of serialized tool payloads before they
// are persisted or transmitted.
package payload

import (
	"encoding/json"
)

// MinBudget is the enforced floor for the byte budget. Budgets below this
// are raised to it so the truncation envelope always fits.
const MinBudget = 256

// envelopeReserve is headroom subtracted from the budget before slicing
// the preview, so the envelope itself re-serializes within the budget.
const envelopeReserve = 64

// Truncated is the replacement envelope for oversized payloads.
type Truncated struct {
	Truncated     bool   `json:"truncated"`
	OriginalBytes int    `json:"originalBytes"`
	Preview       string `json:"preview"`
}

// Truncate serializes v and, if it fits within maxBytes, returns it
// unchanged. Otherwise it returns a Truncated envelope holding the
// original size and a bounded preview of the serialized form.
//
// A payload that cannot be serialized is replaced by an empty envelope
// rather than propagating the error; the pipeline must not fail on
// caller-supplied data.
func Truncate(v any, maxBytes int) any {
	if maxBytes < MinBudget {
		maxBytes = MinBudget
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Truncated{Truncated: true, OriginalBytes: 0, Preview: "unserializable payload"}
	}
	if len(data) <= maxBytes {
		return v
	}

	previewLen := maxBytes - envelopeReserve
	if previewLen > len(data) {
		previewLen = len(data)
	}

	for {
		// Back off to a UTF-8 boundary so the preview stays valid text.
		for previewLen > 0 && data[previewLen-1]&0xC0 == 0x80 {
			previewLen--
		}

		env := Truncated{
			Truncated:     true,
			OriginalBytes: len(data),
			Preview:       string(data[:previewLen]),
		}

		// The preview is JSON text, so re-serialization escapes quotes and
		// backslashes; shrink until the envelope itself fits the budget.
		encoded, err := json.Marshal(env)
		if err != nil || len(encoded) <= maxBytes || previewLen == 0 {
			return env
		}
		overage := len(encoded) - maxBytes
		if overage < 1 {
			overage = 1
		}
		previewLen -= overage
		if previewLen < 0 {
			previewLen = 0
		}
	}
}

// SerializedSize returns the byte length of v's JSON form, or 0 if v does
// not serialize.
func SerializedSize(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}
