package anomaly

import (
	"reflect"
	"testing"
)

func TestNewToolFiresOnce(t *testing.T) {
	d := New(Config{Enabled: true})

	first := d.Check("new_tool", 10)
	if !reflect.DeepEqual(first, []string{TagNewTool}) {
		t.Errorf("first call = %v, want [%s]", first, TagNewTool)
	}

	second := d.Check("new_tool", 10)
	if len(second) != 0 {
		t.Errorf("second call = %v, want no tags", second)
	}

	other := d.Check("other_tool", 10)
	if !reflect.DeepEqual(other, []string{TagNewTool}) {
		t.Errorf("different tool = %v, want [%s]", other, TagNewTool)
	}

	if d.SeenCount() != 2 {
		t.Errorf("SeenCount = %d, want 2", d.SeenCount())
	}
}

func TestLargePayload(t *testing.T) {
	d := New(Config{Enabled: true, LargePayloadBytes: 1000})

	d.Check("tool", 10) // consume the new-tool tag

	if tags := d.Check("tool", 999); len(tags) != 0 {
		t.Errorf("below threshold = %v, want none", tags)
	}
	if tags := d.Check("tool", 1000); !reflect.DeepEqual(tags, []string{TagLargePayload}) {
		t.Errorf("at threshold = %v, want [%s]", tags, TagLargePayload)
	}
}

func TestBurstCalls(t *testing.T) {
	// A tiny bucket with a near-zero refill rate: the first two calls
	// pass, then the bucket is empty.
	d := New(Config{Enabled: true, BurstRate: 0.001, BurstSize: 2})

	d.Check("tool", 0)
	d.Check("tool", 0)
	tags := d.Check("tool", 0)
	if !reflect.DeepEqual(tags, []string{TagBurstCalls}) {
		t.Errorf("third rapid call = %v, want [%s]", tags, TagBurstCalls)
	}

	// Other tools have their own bucket.
	if tags := d.Check("calm_tool", 0); !reflect.DeepEqual(tags, []string{TagNewTool}) {
		t.Errorf("independent tool = %v, want [%s]", tags, TagNewTool)
	}
}

func TestDisabled(t *testing.T) {
	d := New(Config{Enabled: false, LargePayloadBytes: 1})
	if tags := d.Check("tool", 100); tags != nil {
		t.Errorf("disabled detector returned %v", tags)
	}
}
