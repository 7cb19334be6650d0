package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"sankalp/internal/notification/models"
	"sankalp/internal/platform/postgres"
	id "sankalp/pkg/domain"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, n *models.Notification) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO notifications (recipient_id, message, is_read, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, int64(n.Recipient), n.Message, n.IsRead, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Postgres) ListForRecipient(ctx context.Context, recipient id.ActorID, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, recipient_id, message, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{int64(recipient)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *Postgres) CountUnread(ctx context.Context, recipient id.ActorID) (int, error) {
	var n int
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, int64(recipient)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (s *Postgres) MarkRead(ctx context.Context, recipient id.ActorID, ids []id.NotificationID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]int64, len(ids))
	for i, n := range ids {
		raw[i] = int64(n)
	}
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read AND id = ANY($2)`,
		int64(recipient), pq.Array(raw))
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
