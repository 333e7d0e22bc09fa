// Package anomaly flags behavioral signals that static pattern rules
// cannot see: first-ever use of a tool, oversized payloads, and
// sustained call bursts. State is process-lifetime only; a restart
// re-flags previously seen tools by design.
package anomaly

import (
	"sync"

	"golang.org/x/time/rate"
)

// Finding tags emitted by the detector. Anomaly findings never escalate
// severity beyond medium on their own.
const (
	TagNewTool      = "anomaly_new_tool"
	TagLargePayload = "anomaly_large_payload"
	TagBurstCalls   = "anomaly_burst_calls"
)

// Config controls which anomaly checks run.
type Config struct {
	// Enabled gates the whole detector; when false, Check returns nothing.
	Enabled bool

	// LargePayloadBytes is the serialized-size threshold for
	// anomaly_large_payload. Zero disables the check.
	LargePayloadBytes int

	// BurstRate is the sustained per-tool calls-per-second above which
	// anomaly_burst_calls fires. Zero disables the check.
	BurstRate float64

	// BurstSize is the token bucket depth for the burst check.
	BurstSize int
}

// Detector tracks per-process tool usage. Safe for concurrent use.
type Detector struct {
	cfg Config

	mu       sync.Mutex
	seen     map[string]bool
	limiters map[string]*rate.Limiter
}

// New creates a Detector with empty seen state.
func New(cfg Config) *Detector {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 10
	}
	return &Detector{
		cfg:      cfg,
		seen:     make(map[string]bool),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Check records one tool call and returns the anomaly tags it triggered.
// payloadBytes is the serialized size of the already redacted and
// truncated payload.
func (d *Detector) Check(tool string, payloadBytes int) []string {
	if !d.cfg.Enabled {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var tags []string

	if !d.seen[tool] {
		d.seen[tool] = true
		tags = append(tags, TagNewTool)
	}

	if d.cfg.LargePayloadBytes > 0 && payloadBytes >= d.cfg.LargePayloadBytes {
		tags = append(tags, TagLargePayload)
	}

	if d.cfg.BurstRate > 0 {
		lim, ok := d.limiters[tool]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(d.cfg.BurstRate), d.cfg.BurstSize)
			d.limiters[tool] = lim
		}
		if !lim.Allow() {
			tags = append(tags, TagBurstCalls)
		}
	}

	return tags
}

// SeenCount returns how many distinct tools have been observed since
// process start.
func (d *Detector) SeenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
