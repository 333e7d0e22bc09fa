package payload

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTruncateWithinBudget(t *testing.T) {
	in := map[string]any{"command": "ls"}
	out := Truncate(in, 1024)

	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("Truncate returned %T, want the original map", out)
	}
	if m["command"] != "ls" {
		t.Error("payload within budget must pass through unchanged")
	}
}

func TestTruncateOverBudget(t *testing.T) {
	in := map[string]any{"blob": strings.Repeat("x", 4096)}
	originalSize := SerializedSize(in)

	out := Truncate(in, 512)
	env, ok := out.(Truncated)
	if !ok {
		t.Fatalf("Truncate returned %T, want Truncated", out)
	}

	if !env.Truncated {
		t.Error("Truncated flag not set")
	}
	if env.OriginalBytes != originalSize {
		t.Errorf("OriginalBytes = %d, want %d", env.OriginalBytes, originalSize)
	}
	if env.Preview == "" {
		t.Error("empty preview")
	}

	encoded, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if len(encoded) > 512 {
		t.Errorf("envelope serializes to %d bytes, exceeds budget 512", len(encoded))
	}
}

func TestTruncateEscapeHeavyPayload(t *testing.T) {
	// Every quote in the preview doubles when re-escaped; the envelope must
	// still fit the budget.
	in := map[string]any{"blob": strings.Repeat(`"\`, 2048)}

	out := Truncate(in, 300)
	env, ok := out.(Truncated)
	if !ok {
		t.Fatalf("Truncate returned %T, want Truncated", out)
	}

	encoded, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if len(encoded) > 300 {
		t.Errorf("envelope serializes to %d bytes, exceeds budget 300", len(encoded))
	}
}

func TestTruncateBudgetFloor(t *testing.T) {
	in := map[string]any{"blob": strings.Repeat("y", 1000)}

	// A budget below the floor is raised to MinBudget, not honored verbatim.
	out := Truncate(in, 10)
	env, ok := out.(Truncated)
	if !ok {
		t.Fatalf("Truncate returned %T, want Truncated", out)
	}

	encoded, _ := json.Marshal(env)
	if len(encoded) > MinBudget {
		t.Errorf("envelope serializes to %d bytes, exceeds floor %d", len(encoded), MinBudget)
	}
}
