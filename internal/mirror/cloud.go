// Package mirror forwards selected log entries to Cloud Logging so
// operators can alert on high-severity findings without tailing the
// local partition files. Mirroring is best-effort: failures are logged
// and never propagate into the event pipeline.
package mirror

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/logging"
	"google.golang.org/api/option"

	"github.com/andywolf/toolfence/internal/logstore"
)

// CloudMirror sends entries to a Cloud Logging log. The client batches
// and flushes in the background, so Send does not block on the network.
type CloudMirror struct {
	client *logging.Client
	logger *logging.Logger
}

// New connects to Cloud Logging for the given project. logID names the
// destination log (e.g. "toolfence").
func New(ctx context.Context, projectID, logID string, opts ...option.ClientOption) (*CloudMirror, error) {
	if projectID == "" {
		return nil, fmt.Errorf("mirror requires a project ID")
	}
	client, err := logging.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging client: %w", err)
	}
	client.OnError = func(err error) {
		log.Printf("mirror: background send: %v", err)
	}
	return &CloudMirror{
		client: client,
		logger: client.Logger(logID),
	}, nil
}

// Send mirrors one entry. Entries are already redacted and truncated by
// the pipeline before they reach any sink.
func (m *CloudMirror) Send(e logstore.Entry) {
	labels := map[string]string{"event": string(e.Event)}
	if e.SessionID != "" {
		labels["session_id"] = e.SessionID
	}
	if e.Tool != "" {
		labels["tool"] = e.Tool
	}

	m.logger.Log(logging.Entry{
		Timestamp: e.Timestamp,
		Severity:  toCloudSeverity(e.Severity),
		Payload:   e,
		Labels:    labels,
	})
}

// Close flushes buffered entries and releases the client.
func (m *CloudMirror) Close() error {
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close logging client: %w", err)
	}
	return nil
}

func toCloudSeverity(s logstore.Severity) logging.Severity {
	switch s {
	case logstore.SeverityLow:
		return logging.Info
	case logstore.SeverityMedium:
		return logging.Warning
	case logstore.SeverityHigh:
		return logging.Error
	case logstore.SeverityCritical:
		return logging.Critical
	default:
		return logging.Default
	}
}
