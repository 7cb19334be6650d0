package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "sankalp/pkg/platform/audit"
	txcontext "sankalp/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Writes join the
// caller's transaction when one is present in the context.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			occurred_at, action, domain, record_id, actor_id,
			from_status, to_status, reason, request_id, device
		) VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.Timestamp,
		string(event.Action),
		event.Domain,
		event.RecordID,
		event.ActorID,
		event.FromStatus,
		event.ToStatus,
		event.Reason,
		event.RequestID,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `occurred_at, action, domain, record_id, COALESCE(actor_id, 0),
	from_status, to_status, reason, request_id, device`

func (s *Store) ListByRecord(ctx context.Context, domain string, recordID int64) ([]audit.Event, error) {
	query := `SELECT ` + selectColumns + ` FROM audit_events
		WHERE domain = $1 AND record_id = $2 ORDER BY occurred_at, id`
	rows, err := s.db.QueryContext(ctx, query, domain, recordID)
	if err != nil {
		return nil, fmt.Errorf("list audit events by record: %w", err)
	}
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + selectColumns + ` FROM audit_events ORDER BY occurred_at DESC, id DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	defer rows.Close()
	var out []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			action string
		)
		if err := rows.Scan(&e.Timestamp, &action, &e.Domain, &e.RecordID, &e.ActorID,
			&e.FromStatus, &e.ToStatus, &e.Reason, &e.RequestID, &e.Device); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
