package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sankalp/internal/article/models"
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

const articleColumns = `id, domain, title, content, author_id, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var (
		a      models.Article
		domain string
	)
	if err := row.Scan(&a.ID, &domain, &a.Title, &a.Content, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Domain = id.AssistanceDomain(domain)
	return &a, nil
}

func (s *Postgres) Create(ctx context.Context, a *models.Article) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO articles (domain, title, content, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, string(a.Domain), a.Title, a.Content, int64(a.AuthorID), a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, articleID id.ArticleID) (*models.Article, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, int64(articleID))
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}
	return a, nil
}

func (s *Postgres) Update(ctx context.Context, articleID id.ArticleID, author id.ActorID, title, content string, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE articles SET title = $3, content = $4, updated_at = $5 WHERE id = $1 AND author_id = $2
	`, int64(articleID), int64(author), title, content, at)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return requireOwned(res)
}

func (s *Postgres) Delete(ctx context.Context, articleID id.ArticleID, author id.ActorID) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM articles WHERE id = $1 AND author_id = $2`, int64(articleID), int64(author))
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return requireOwned(res)
}

func requireOwned(res sql.Result) error {
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, domain id.AssistanceDomain, author *id.ActorID, limit int) ([]*models.Article, error) {
	var authorArg sql.NullInt64
	if author != nil {
		authorArg = sql.NullInt64{Int64: int64(*author), Valid: true}
	}
	var limitArg sql.NullInt64
	if limit > 0 {
		limitArg = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT `+articleColumns+` FROM articles
		WHERE domain = $1 AND ($2::bigint IS NULL OR author_id = $2)
		ORDER BY id DESC
		LIMIT $3
	`, string(domain), authorArg, limitArg)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
