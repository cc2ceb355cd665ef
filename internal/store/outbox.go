package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a team announcement waiting for the chat transport.
type OutboxMessage struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	ChannelID   string     `json:"channel_id,omitempty"`
	SenderID    string     `json:"sender_id"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// EnqueueMessage stores a message for later delivery.
func (db *DB) EnqueueMessage(ctx context.Context, m *OutboxMessage) error {
	if strings.TrimSpace(m.Body) == "" {
		return errors.New("message body is empty")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO outbox (id, team_id, channel_id, sender_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.TeamID, nullString(m.ChannelID), m.SenderID, m.Body, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// PendingMessages returns undelivered messages for a team, oldest first.
func (db *DB) PendingMessages(ctx context.Context, teamID string) ([]OutboxMessage, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, team_id, channel_id, sender_id, body, created_at, delivered_at
		FROM outbox WHERE team_id = ? AND delivered_at IS NULL ORDER BY created_at, id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("pending messages: %w", err)
	}
	defer rows.Close()

	var out []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var channel, delivered sql.NullString
		var created string
		if err := rows.Scan(&m.ID, &m.TeamID, &channel, &m.SenderID, &m.Body, &created, &delivered); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ChannelID = channel.String
		m.CreatedAt, _ = parseTime(created)
		m.DeliveredAt = parseNullableTime(delivered)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkDelivered stamps a message as delivered.
func (db *DB) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.conn.ExecContext(ctx, `UPDATE outbox SET delivered_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}
