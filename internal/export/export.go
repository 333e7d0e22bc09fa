// Package export renders query results as flat JSON or CSV for
// consumption outside the fence.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andywolf/toolfence/internal/logstore"
)

// csvHeader is the fixed CSV column set.
var csvHeader = []string{"ts", "event", "tool", "severity", "findings"}

// JSON writes entries as a flat JSON array.
func JSON(w io.Writer, entries []logstore.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []logstore.Entry{}
	}
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	return nil
}

// CSV writes entries with the fixed columns ts,event,tool,severity,
// findings. Findings are pipe-delimited; fields containing delimiters or
// quotes are quote-escaped by the writer.
func CSV(w io.Writer, entries []logstore.Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			string(e.Event),
			e.Tool,
			string(e.Severity),
			strings.Join(e.Findings, "|"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
