package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sankalp/internal/platform/postgres"
	"sankalp/internal/qa/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

const table = "questions"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const questionColumns = `id, domain, asked_by, question, allow_anonymous, answer, answered_by, answered_at,
	status, created_at`

func scanQuestion(row interface{ Scan(...any) error }) (*models.Question, error) {
	var (
		q          models.Question
		domain     string
		status     string
		answeredBy sql.NullInt64
		answeredAt sql.NullTime
	)
	err := row.Scan(&q.ID, &domain, &q.AskedBy, &q.Question, &q.AllowAnonymous, &q.Answer, &answeredBy, &answeredAt,
		&status, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Domain = id.AssistanceDomain(domain)
	q.Status = models.Status(status)
	if answeredBy.Valid {
		by := id.ActorID(answeredBy.Int64)
		q.AnsweredBy = &by
	}
	if answeredAt.Valid {
		q.AnsweredAt = &answeredAt.Time
	}
	return &q, nil
}

func (s *Postgres) Create(ctx context.Context, q *models.Question) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO questions (domain, asked_by, question, allow_anonymous, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, string(q.Domain), int64(q.AskedBy), q.Question, q.AllowAnonymous, string(q.Status), q.CreatedAt).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, questionID id.QuestionID) (*models.Question, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, int64(questionID))
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	return q, nil
}

func (s *Postgres) Answer(ctx context.Context, questionID id.QuestionID, answer string, by id.ActorID, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE questions
		SET answer = $3, answered_by = $4, answered_at = $5, status = $6
		WHERE id = $1 AND status = $2
	`, int64(questionID), string(models.StatusPending), answer, int64(by), at, string(models.StatusAnswered))
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return postgres.ExplainMiss(ctx, s.db, table, int64(questionID))
}

func (s *Postgres) ListByDomain(ctx context.Context, domain id.AssistanceDomain, statuses ...models.Status) ([]*models.Question, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+questionColumns+` FROM questions WHERE domain = $1 ORDER BY id DESC`, string(domain))
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return s.query(ctx, `SELECT `+questionColumns+` FROM questions WHERE domain = $1 AND status = ANY($2::text[]) ORDER BY id DESC`,
		string(domain), pq.Array(names))
}

func (s *Postgres) ListByAsker(ctx context.Context, domain id.AssistanceDomain, asker id.ActorID) ([]*models.Question, error) {
	return s.query(ctx, `SELECT `+questionColumns+` FROM questions WHERE domain = $1 AND asked_by = $2 ORDER BY id DESC`,
		string(domain), int64(asker))
}

func (s *Postgres) CountByStatus(ctx context.Context, domain id.AssistanceDomain) (map[models.Status]int, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM questions WHERE domain = $1 GROUP BY status`, string(domain))
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()
	counts := make(map[models.Status]int, 2)
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

func (s *Postgres) query(ctx context.Context, query string, args ...any) ([]*models.Question, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
