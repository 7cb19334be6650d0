package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sankalp/internal/medical/models"
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

func (s *Postgres) CreateHospital(ctx context.Context, h *models.Hospital) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO hospitals (name, email, address) VALUES ($1, $2, $3) RETURNING id`,
		h.Name, h.Email, h.Address).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert hospital: %w", err)
	}
	return nil
}

func (s *Postgres) FindHospital(ctx context.Context, hospitalID id.HospitalID) (*models.Hospital, error) {
	var h models.Hospital
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, email, address FROM hospitals WHERE id = $1`, int64(hospitalID)).
		Scan(&h.ID, &h.Name, &h.Email, &h.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find hospital: %w", err)
	}
	return &h, nil
}

func (s *Postgres) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT id, name, email, address FROM hospitals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Hospital, 0)
	for rows.Next() {
		var h models.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Email, &h.Address); err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

const campColumns = `id, volunteer_id, hospital_id, contact_person, phone, location, camp_date, camp_time,
	description, status, approval_token, scheduled_date, scheduled_time, created_at`

func scanCamp(row interface{ Scan(...any) error }) (*models.Camp, error) {
	var (
		c         models.Camp
		status    string
		token     uuid.UUID
		scheduled sql.NullTime
	)
	err := row.Scan(&c.ID, &c.VolunteerID, &c.HospitalID, &c.ContactPerson, &c.Phone, &c.Location, &c.Date, &c.Time,
		&c.Description, &status, &token, &scheduled, &c.ScheduledTime, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.Status(status)
	c.ApprovalToken = id.ApprovalToken(token)
	if scheduled.Valid {
		c.ScheduledDate = &scheduled.Time
	}
	return &c, nil
}

func (s *Postgres) Create(ctx context.Context, camp *models.Camp) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO medical_camps (volunteer_id, hospital_id, contact_person, phone, location, camp_date, camp_time,
			description, status, approval_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, int64(camp.VolunteerID), int64(camp.HospitalID), camp.ContactPerson, camp.Phone, camp.Location, camp.Date,
		camp.Time, camp.Description, string(camp.Status), uuid.UUID(camp.ApprovalToken), camp.CreatedAt).Scan(&camp.ID)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert medical camp: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, campID id.MedicalCampID) (*models.Camp, error) {
	return s.findOne(ctx, `SELECT `+campColumns+` FROM medical_camps WHERE id = $1`, int64(campID))
}

func (s *Postgres) FindByToken(ctx context.Context, token id.ApprovalToken) (*models.Camp, error) {
	return s.findOne(ctx, `SELECT `+campColumns+` FROM medical_camps WHERE approval_token = $1`, uuid.UUID(token))
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.Camp, error) {
	c, err := scanCamp(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find medical camp: %w", err)
	}
	return c, nil
}

func (s *Postgres) Respond(ctx context.Context, token id.ApprovalToken, to models.Status) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE medical_camps
		SET status = $3,
			scheduled_date = CASE WHEN $3::text = 'Scheduled' THEN camp_date ELSE scheduled_date END,
			scheduled_time = CASE WHEN $3::text = 'Scheduled' THEN camp_time ELSE scheduled_time END
		WHERE approval_token = $1 AND status = $2
	`, uuid.UUID(token), string(models.StatusPending), string(to))
	if err != nil {
		return fmt.Errorf("respond to medical camp: %w", err)
	}
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.FindByToken(ctx, token); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) ListByVolunteer(ctx context.Context, volunteer id.ActorID) ([]*models.Camp, error) {
	return s.query(ctx, `SELECT `+campColumns+` FROM medical_camps WHERE volunteer_id = $1 ORDER BY id DESC`,
		int64(volunteer))
}

func (s *Postgres) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Camp, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+campColumns+` FROM medical_camps ORDER BY id DESC`)
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return s.query(ctx, `SELECT `+campColumns+` FROM medical_camps WHERE status = ANY($1::text[]) ORDER BY id DESC`,
		pq.Array(names))
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM medical_camps GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count medical camps: %w", err)
	}
	defer rows.Close()
	counts := make(map[models.Status]int, 3)
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
		return nil, fmt.Errorf("list medical camps: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Camp, 0)
	for rows.Next() {
		c, err := scanCamp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical camp: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
