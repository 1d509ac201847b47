// Package observability records scan lifecycle events in the audit
// database. Event writes never propagate errors: a failing event store
// must not fail the scan that triggered it.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/structaudit/structaudit/idgen"
)

// Schema for the scan_events table. Applied by Init.
const Schema = `
CREATE TABLE IF NOT EXISTS scan_events (
	event_id TEXT PRIMARY KEY,
	scan_id TEXT,
	url TEXT NOT NULL,
	stage TEXT NOT NULL,
	errors INTEGER NOT NULL DEFAULT 0,
	warnings INTEGER NOT NULL DEFAULT 0,
	detail TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_events_url ON scan_events(url);
CREATE INDEX IF NOT EXISTS idx_scan_events_created ON scan_events(created_at);
`

// Event stages.
const (
	StageScanned = "scanned"
	StageFailed  = "failed"
	StageEvicted = "cache_evicted"
)

// ScanEvent is one lifecycle record.
type ScanEvent struct {
	EventID   string    `json:"event_id"`
	ScanID    string    `json:"scan_id,omitempty"`
	URL       string    `json:"url"`
	Stage     string    `json:"stage"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventLogger writes scan events.
type EventLogger struct {
	db     *sql.DB
	newID  idgen.Generator
	logger *slog.Logger
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// WithLogger sets a custom logger for write failures.
func WithLogger(logger *slog.Logger) EventLoggerOption {
	return func(l *EventLogger) { l.logger = logger }
}

// NewEventLogger creates a logger backed by the given database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:     db,
		newID:  idgen.Prefixed("evt_", idgen.Default),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Init creates the scan_events table if it doesn't exist.
func (l *EventLogger) Init() error {
	if _, err := l.db.Exec(Schema); err != nil {
		return fmt.Errorf("observability: init: %w", err)
	}
	return nil
}

// LogEvent records a scan event. Write failures are logged and swallowed.
func (l *EventLogger) LogEvent(ctx context.Context, ev ScanEvent) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO scan_events (event_id, scan_id, url, stage, errors, warnings, detail, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		l.newID(), ev.ScanID, ev.URL, ev.Stage, ev.Errors, ev.Warnings, ev.Detail, time.Now().Unix())
	if err != nil {
		l.logger.Error("observability: event write failed",
			"url", ev.URL, "stage", ev.Stage, "error", err)
	}
}

// Recent returns the latest events, newest first.
func (l *EventLogger) Recent(ctx context.Context, limit int) ([]ScanEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_id, scan_id, url, stage, errors, warnings, detail, created_at
		FROM scan_events ORDER BY created_at DESC, event_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("observability: recent: %w", err)
	}
	defer rows.Close()

	var out []ScanEvent
	for rows.Next() {
		var (
			ev        ScanEvent
			createdAt int64
		)
		if err := rows.Scan(&ev.EventID, &ev.ScanID, &ev.URL, &ev.Stage,
			&ev.Errors, &ev.Warnings, &ev.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("observability: scan row: %w", err)
		}
		ev.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Prune removes events older than the retention window.
func (l *EventLogger) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := l.db.ExecContext(ctx, `DELETE FROM scan_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("observability: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
