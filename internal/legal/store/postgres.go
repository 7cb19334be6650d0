package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sankalp/internal/legal/models"
	"sankalp/internal/platform/postgres"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

const table = "legal_camps"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const campColumns = `id, title, description, category, location, proposed_date, proposed_time,
	scheduled_date, scheduled_time, requested_by, assigned_advocate, status, allow_anonymous,
	contact_number, created_at, updated_at`

func scanCamp(row interface{ Scan(...any) error }) (*models.Camp, error) {
	var (
		c         models.Camp
		category  string
		status    string
		scheduled sql.NullTime
		advocate  sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &category, &c.Location, &c.ProposedDate, &c.ProposedTime,
		&scheduled, &c.ScheduledTime, &c.RequestedBy, &advocate, &status, &c.AllowAnonymous,
		&c.ContactNumber, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Category = models.Category(category)
	c.Status = models.Status(status)
	if scheduled.Valid {
		c.ScheduledDate = &scheduled.Time
	}
	if advocate.Valid {
		a := id.ActorID(advocate.Int64)
		c.AssignedAdvocate = &a
	}
	return &c, nil
}

func (s *Postgres) Create(ctx context.Context, camp *models.Camp) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO legal_camps (title, description, category, location, proposed_date, proposed_time,
			requested_by, status, allow_anonymous, contact_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id
	`, camp.Title, camp.Description, string(camp.Category), camp.Location, camp.ProposedDate, camp.ProposedTime,
		int64(camp.RequestedBy), string(camp.Status), camp.AllowAnonymous, camp.ContactNumber, camp.CreatedAt).Scan(&camp.ID)
	if err != nil {
		return fmt.Errorf("insert legal camp: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, campID id.LegalCampID) (*models.Camp, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+campColumns+` FROM legal_camps WHERE id = $1`, int64(campID))
	c, err := scanCamp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find legal camp: %w", err)
	}
	return c, nil
}

func (s *Postgres) Decide(ctx context.Context, campID id.LegalCampID, to models.Status, advocate *id.ActorID, at time.Time) error {
	var assigned sql.NullInt64
	if advocate != nil {
		assigned = sql.NullInt64{Int64: int64(*advocate), Valid: true}
	}
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE legal_camps
		SET status = $3, assigned_advocate = COALESCE($4, assigned_advocate), updated_at = $5
		WHERE id = $1 AND status = $2
	`, int64(campID), string(models.StatusPending), string(to), assigned, at)
	if err != nil {
		return fmt.Errorf("decide legal camp: %w", err)
	}
	return s.checkApplied(ctx, res, campID)
}

func (s *Postgres) Schedule(ctx context.Context, campID id.LegalCampID, date time.Time, clock string, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE legal_camps
		SET status = $3, scheduled_date = $4, scheduled_time = $5, updated_at = $6
		WHERE id = $1 AND status = $2
	`, int64(campID), string(models.StatusApproved), string(models.StatusScheduled), date, clock, at)
	if err != nil {
		return fmt.Errorf("schedule legal camp: %w", err)
	}
	return s.checkApplied(ctx, res, campID)
}

func (s *Postgres) Complete(ctx context.Context, campID id.LegalCampID, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE legal_camps SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2
	`, int64(campID), string(models.StatusScheduled), string(models.StatusCompleted), at)
	if err != nil {
		return fmt.Errorf("complete legal camp: %w", err)
	}
	return s.checkApplied(ctx, res, campID)
}

func (s *Postgres) checkApplied(ctx context.Context, res sql.Result, campID id.LegalCampID) error {
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return postgres.ExplainMiss(ctx, s.db, table, int64(campID))
}

func (s *Postgres) ListByRequester(ctx context.Context, volunteer id.ActorID) ([]*models.Camp, error) {
	return s.query(ctx, `SELECT `+campColumns+` FROM legal_camps WHERE requested_by = $1 ORDER BY id DESC`,
		int64(volunteer))
}

func (s *Postgres) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Camp, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+campColumns+` FROM legal_camps ORDER BY id DESC`)
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return s.query(ctx, `SELECT `+campColumns+` FROM legal_camps WHERE status = ANY($1::text[]) ORDER BY id DESC`,
		pq.Array(names))
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM legal_camps GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count legal camps: %w", err)
	}
	defer rows.Close()
	counts := make(map[models.Status]int, 5)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

func (s *Postgres) query(ctx context.Context, query string, args ...any) ([]*models.Camp, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list legal camps: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Camp, 0)
	for rows.Next() {
		c, err := scanCamp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan legal camp: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
