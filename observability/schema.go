package observability

import "database/sql"

// Schema contains the DDL for the action event tables.
// Call Init(db) to apply it, or use this constant to embed in your own
// schema management.
const Schema = `
-- Action events: one row per completed operator command.
CREATE TABLE IF NOT EXISTS action_events (
    event_id TEXT PRIMARY KEY,
    action TEXT NOT NULL,
    target TEXT,
    page_id TEXT,
    session_id TEXT,
    success INTEGER NOT NULL,
    error TEXT,
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_events_time
    ON action_events(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_action_events_action
    ON action_events(action, created_at DESC);
`

// Init applies the observability schema to db.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
