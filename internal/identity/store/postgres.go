package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sankalp/internal/identity/models"
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

const actorColumns = `id, username, email, contact, address, password_hash, role, created_at`

func scanActor(row interface{ Scan(...any) error }) (*models.Actor, error) {
	var (
		a    models.Actor
		role string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Contact, &a.Address, &a.PasswordHash, &role, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	return &a, nil
}

func (s *Postgres) Create(ctx context.Context, actor *models.Actor) error {
	query := `
		INSERT INTO actors (username, email, contact, address, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		actor.Username, actor.Email, actor.Contact, actor.Address, actor.PasswordHash, string(actor.Role), actor.CreatedAt,
	).Scan(&actor.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("username taken: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert actor: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, int64(actorID))
	a, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find actor by id: %w", err)
	}
	return a, nil
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*models.Actor, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE username = $1`, username)
	a, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find actor by username: %w", err)
	}
	return a, nil
}

func (s *Postgres) ListByRole(ctx context.Context, roles ...models.Role) ([]*models.Actor, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE role = ANY($1::text[]) ORDER BY id`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list actors by role: %w", err)
	}
	return collect(rows)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Actor, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+actorColumns+` FROM actors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*models.Actor, error) {
	defer rows.Close()
	var out []*models.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateRole(ctx context.Context, actorID id.ActorID, role models.Role) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `UPDATE actors SET role = $2 WHERE id = $1`, int64(actorID), string(role))
	if err != nil {
		return fmt.Errorf("update actor role: %w", err)
	}
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, actorID id.ActorID) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM actors WHERE id = $1`, int64(actorID))
	if err != nil {
		return fmt.Errorf("delete actor: %w", err)
	}
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT role, COUNT(*) FROM actors GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count actors by role: %w", err)
	}
	defer rows.Close()
	counts := make(map[models.Role]int, len(models.AllRoles))
	for rows.Next() {
		var (
			role string
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		counts[models.Role(role)] = n
	}
	return counts, rows.Err()
}
