package logstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// queueDepth bounds how many appends may be pending behind the writer.
// Producers block briefly when the queue is full rather than dropping.
const queueDepth = 256

// partitionDate formats the UTC calendar day used for partition files.
// Partitioning is by UTC day: an entry's file is derived from its own
// timestamp, so late entries land in their own day's file.
func partitionDate(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

func partitionFilename(date string) string {
	return fmt.Sprintf("fence-%s.jsonl", date)
}

// Store appends entries to per-day JSONL partition files under a single
// directory. All appends for one Store are funneled through one writer
// goroutine, so concurrent callers never interleave partial lines.
// Independent directories (independent Stores) do not affect each other.
type Store struct {
	dir string

	mu     sync.Mutex
	queue  chan Entry
	closed bool
	done   chan struct{}
}

// New creates a Store writing to dir, creating it if needed, and starts
// the writer goroutine.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	s := &Store{
		dir:   dir,
		queue: make(chan Entry, queueDepth),
		done:  make(chan struct{}),
	}
	go s.drain()
	return s, nil
}

// Dir returns the partition directory.
func (s *Store) Dir() string {
	return s.dir
}

// Append enqueues an entry for the writer goroutine and returns. Write
// failures are logged and the entry is dropped; Append never reports a
// blocking error and nothing is retried. Entries with a zero timestamp
// are stamped with the current time.
func (s *Store) Append(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Findings == nil {
		e.Findings = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Printf("logstore: append after close, entry dropped (event=%s)", e.Event)
		return
	}
	s.queue <- e
}

// Close stops accepting appends, waits for the queue to drain, and
// returns once all pending entries are on disk.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return nil
}

// drain is the single writer: it applies queued entries in arrival order,
// keeping one open handle and rotating it when the entry's day changes.
func (s *Store) drain() {
	defer close(s.done)

	var (
		file    *os.File
		writer  *bufio.Writer
		curDate string
	)
	closeCurrent := func() {
		if file == nil {
			return
		}
		if err := writer.Flush(); err != nil {
			log.Printf("logstore: flush %s: %v", file.Name(), err)
		}
		if err := file.Close(); err != nil {
			log.Printf("logstore: close %s: %v", file.Name(), err)
		}
		file, writer = nil, nil
	}
	defer closeCurrent()

	for e := range s.queue {
		date := partitionDate(e.Timestamp)
		if file == nil || date != curDate {
			closeCurrent()
			path := filepath.Join(s.dir, partitionFilename(date))
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				log.Printf("logstore: open %s: %v, entry dropped", path, err)
				continue
			}
			file, writer, curDate = f, bufio.NewWriter(f), date
		}

		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("logstore: marshal entry: %v, entry dropped", err)
			continue
		}
		if _, err := writer.Write(data); err != nil {
			log.Printf("logstore: write entry: %v, entry dropped", err)
			continue
		}
		if err := writer.WriteByte('\n'); err != nil {
			log.Printf("logstore: write newline: %v", err)
			continue
		}
		// Flush per entry so readers see complete lines promptly.
		if err := writer.Flush(); err != nil {
			log.Printf("logstore: flush entry: %v", err)
		}
	}
}

// ReadLatest returns up to limit entries from today's (UTC) partition,
// in chronological order, after applying the filter. The query scope is
// intentionally limited to the current day; there are no cross-day reads.
// A missing partition yields an empty result, not an error. A line that
// fails to parse becomes a synthetic parse_error entry carrying the raw
// line as its payload.
func (s *Store) ReadLatest(limit int, f Filter) ([]Entry, error) {
	path := filepath.Join(s.dir, partitionFilename(partitionDate(time.Now())))
	return readPartition(path, limit, f)
}

func readPartition(path string, limit int, f Filter) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open partition: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	// Large lines: payloads are truncated upstream, but leave room anyway.
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			entries = append(entries, Entry{
				Event:    EventParseError,
				Findings: []string{},
				Payload:  string(line),
			})
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read partition: %w", err)
	}

	// Last limit lines in file order, then post-hoc filters.
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.matches(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
