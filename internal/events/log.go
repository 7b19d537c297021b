package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventLog persists activity to the events table.
type EventLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventLog creates an event log over an opened database.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db, now: time.Now}
}

// Append persists an event and returns its row id.
func (l *EventLog) Append(ctx context.Context, e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}

	result, err := l.db.ExecContext(ctx, `
		INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", e.EventType(), err)
	}
	return result.LastInsertId()
}

// RawEvent is a stored event with its JSON payload undecoded. Use a
// Registry to turn it back into a typed event.
type RawEvent struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Payload    string    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

const selectEvents = `
	SELECT id, event_type, entity_type, entity_id, payload, occurred_at, created_at
	FROM events`

// Recent returns up to limit events, newest first. With types given only
// events of those types are returned.
func (l *EventLog) Recent(ctx context.Context, limit int, types ...string) ([]RawEvent, error) {
	query := selectEvents
	args := make([]any, 0, len(types)+1)
	if len(types) > 0 {
		query += " WHERE event_type IN (" + placeholders(len(types)) + ")"
		for _, t := range types {
			args = append(args, t)
		}
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	return l.query(ctx, query, args...)
}

// Since returns every event that occurred at or after t, oldest first.
func (l *EventLog) Since(ctx context.Context, t time.Time) ([]RawEvent, error) {
	return l.query(ctx, selectEvents+" WHERE occurred_at >= ? ORDER BY id ASC", t.UTC())
}

// Counts returns the number of events per type that occurred at or after t.
func (l *EventLog) Counts(ctx context.Context, t time.Time) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*)
		FROM events
		WHERE occurred_at >= ?
		GROUP BY event_type`,
		t.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// Prune deletes events that occurred more than olderThan ago and reports
// how many were removed.
func (l *EventLog) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := l.now().Add(-olderThan).UTC()
	result, err := l.db.ExecContext(ctx, `DELETE FROM events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}

func (l *EventLog) query(ctx context.Context, query string, args ...any) ([]RawEvent, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.Payload, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
