// Package observability records operator actions to SQLite and holds the
// slog setup shared by the binaries. A failing observability store never
// blocks or fails the action it describes.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Huchangzhi/ShellChrome/idgen"
)

// ActionEvent describes one completed operator command.
type ActionEvent struct {
	Action    string        // "click", "navigate", "snapshot", ...
	Target    string        // uid, url, or page id the action addressed
	PageID    string        // page context the action ran against
	SessionID string        // owning session
	Success   bool
	Err       string // empty on success
	Duration  time.Duration
}

// EventLogger writes action events.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogAction records an action event. Non-blocking: errors are logged via slog
// but do not propagate, so a failing observability store never fails the action.
func (l *EventLogger) LogAction(ctx context.Context, event ActionEvent) {
	if l == nil || l.db == nil {
		return
	}
	eventID := l.newID()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO action_events (
			event_id, action, target, page_id, session_id,
			success, error, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		eventID, event.Action, event.Target, event.PageID, event.SessionID,
		event.Success, event.Err, event.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		slog.Error("observability: action log failed", "error", err, "action", event.Action)
	}
}

// RetentionConfig specifies retention in days. Zero means no cleanup.
type RetentionConfig struct {
	ActionEventsDays int
}

// Cleanup deletes events exceeding the retention threshold.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	if cfg.ActionEventsDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(cfg.ActionEventsDays*86400)
	_, err := db.ExecContext(ctx,
		`DELETE FROM action_events WHERE created_at < ?`, cutoff)
	return err
}
