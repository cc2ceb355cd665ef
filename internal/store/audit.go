package store

import (
	"context"
	"fmt"
	"time"
)

// AuditRecord is one handled request. Payload is a JSON document with the
// routing decisions and findings.
type AuditRecord struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	TeamID     string    `json:"team_id"`
	Intent     string    `json:"intent"`
	Complexity string    `json:"complexity"`
	Status     string    `json:"status"`
	Payload    string    `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordRequest stores an audit record. Re-recording a request ID replaces it.
func (db *DB) RecordRequest(ctx context.Context, r AuditRecord) error {
	if r.RequestID == "" {
		return fmt.Errorf("audit record has empty request id")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO request_audit (request_id, user_id, team_id, intent, complexity, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RequestID, r.UserID, r.TeamID, r.Intent, r.Complexity, r.Status, r.Payload, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// RecentRequests returns up to limit audit records, newest first.
func (db *DB) RecentRequests(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT request_id, user_id, team_id, intent, complexity, status, payload, created_at
		FROM request_audit ORDER BY created_at DESC, request_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent requests: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var r AuditRecord
		var created string
		if err := rows.Scan(&r.RequestID, &r.UserID, &r.TeamID, &r.Intent, &r.Complexity, &r.Status, &r.Payload, &created); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.CreatedAt, _ = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
