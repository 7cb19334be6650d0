package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sankalp/internal/education/models"
	"sankalp/internal/platform/postgres"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const requestColumns = `id, beneficiary_id, full_name, age, education_level, reason, status, created_at,
	volunteer_id, forwarded_to, forwarded_at, decision_at, volunteer_notes, admin_notes`

func scanRequest(row interface{ Scan(...any) error }) (*models.Request, error) {
	var (
		r           models.Request
		status      string
		age         sql.NullInt32
		volunteer   sql.NullInt64
		forwardedTo sql.NullInt64
		forwardedAt sql.NullTime
		decisionAt  sql.NullTime
	)
	err := row.Scan(&r.ID, &r.BeneficiaryID, &r.FullName, &age, &r.EducationLevel, &r.Reason, &status, &r.CreatedAt,
		&volunteer, &forwardedTo, &forwardedAt, &decisionAt, &r.VolunteerNotes, &r.AdminNotes)
	if err != nil {
		return nil, err
	}
	r.Status = models.Status(status)
	if age.Valid {
		a := int(age.Int32)
		r.Age = &a
	}
	if volunteer.Valid {
		v := id.ActorID(volunteer.Int64)
		r.VolunteerID = &v
	}
	if forwardedTo.Valid {
		d := id.ActorID(forwardedTo.Int64)
		r.ForwardedTo = &d
	}
	if forwardedAt.Valid {
		r.ForwardedAt = &forwardedAt.Time
	}
	if decisionAt.Valid {
		r.DecisionAt = &decisionAt.Time
	}
	return &r, nil
}

func (s *Postgres) Create(ctx context.Context, req *models.Request) error {
	var age sql.NullInt32
	if req.Age != nil {
		age = sql.NullInt32{Int32: int32(*req.Age), Valid: true}
	}
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO education_requests (beneficiary_id, full_name, age, education_level, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, int64(req.BeneficiaryID), req.FullName, age, req.EducationLevel, req.Reason, string(req.Status), req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("insert education request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.EducationRequestID) (*models.Request, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM education_requests WHERE id = $1`, int64(requestID))
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find education request: %w", err)
	}
	return r, nil
}

// Forward and Decide run the conditional update and, when it matches nothing,
// the lookup that explains why, in one transaction.
func (s *Postgres) Forward(ctx context.Context, requestID id.EducationRequestID, volunteer, donor id.ActorID, notes string, at time.Time) error {
	return postgres.InTx(ctx, s.db, func(ctx context.Context) error {
		res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
			UPDATE education_requests
			SET status = $3, volunteer_id = $4, forwarded_to = $5, forwarded_at = $6, volunteer_notes = $7
			WHERE id = $1 AND status = $2
		`, int64(requestID), string(models.StatusPending), string(models.StatusForwarded),
			int64(volunteer), int64(donor), at, notes)
		if err != nil {
			return fmt.Errorf("forward education request: %w", err)
		}
		ok, err := postgres.RequireOneRow(res)
		if err != nil || ok {
			return err
		}
		if _, err := s.FindByID(ctx, requestID); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	})
}

func (s *Postgres) Decide(ctx context.Context, requestID id.EducationRequestID, donor id.ActorID, to models.Status, at time.Time) error {
	return postgres.InTx(ctx, s.db, func(ctx context.Context) error {
		res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
			UPDATE education_requests
			SET status = $4, decision_at = $5
			WHERE id = $1 AND forwarded_to = $2 AND status = $3
		`, int64(requestID), int64(donor), string(models.StatusForwarded), string(to), at)
		if err != nil {
			return fmt.Errorf("decide education request: %w", err)
		}
		ok, err := postgres.RequireOneRow(res)
		if err != nil || ok {
			return err
		}
		var assigned bool
		err = postgres.Conn(ctx, s.db).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM education_requests WHERE id = $1 AND forwarded_to = $2)`,
			int64(requestID), int64(donor)).Scan(&assigned)
		if err != nil {
			return fmt.Errorf("check education request assignment: %w", err)
		}
		if !assigned {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	})
}

func (s *Postgres) ListByBeneficiary(ctx context.Context, beneficiary id.ActorID) ([]*models.Request, error) {
	return s.query(ctx, `SELECT `+requestColumns+` FROM education_requests WHERE beneficiary_id = $1 ORDER BY id DESC`,
		int64(beneficiary))
}

func (s *Postgres) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Request, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+requestColumns+` FROM education_requests ORDER BY id DESC`)
	}
	return s.query(ctx, `SELECT `+requestColumns+` FROM education_requests WHERE status = ANY($1::text[]) ORDER BY id DESC`,
		pq.Array(statusNames(statuses)))
}

func (s *Postgres) ListForDonor(ctx context.Context, donor id.ActorID, statuses ...models.Status) ([]*models.Request, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+requestColumns+` FROM education_requests WHERE forwarded_to = $1 ORDER BY id DESC`,
			int64(donor))
	}
	return s.query(ctx, `SELECT `+requestColumns+` FROM education_requests
		WHERE forwarded_to = $1 AND status = ANY($2::text[]) ORDER BY id DESC`,
		int64(donor), pq.Array(statusNames(statuses)))
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM education_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count education requests: %w", err)
	}
	defer rows.Close()
	counts := make(map[models.Status]int, 4)
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

func (s *Postgres) query(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list education requests: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan education request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func statusNames(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
