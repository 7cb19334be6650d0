package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sankalp/internal/platform/postgres"
	"sankalp/internal/womensupport/models"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
)

const table = "women_support_campaigns"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const campaignColumns = `id, title, description, location, proposed_date, proposed_time, scheduled_date,
	scheduled_time, status, volunteer_id, supporter_id, rejection_reason, created_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var (
		c         models.Campaign
		status    string
		scheduled sql.NullTime
		supporter sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Location, &c.ProposedDate, &c.ProposedTime, &scheduled,
		&c.ScheduledTime, &status, &c.VolunteerID, &supporter, &c.RejectionReason, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.Status(status)
	if scheduled.Valid {
		c.ScheduledDate = &scheduled.Time
	}
	if supporter.Valid {
		sp := id.ActorID(supporter.Int64)
		c.SupporterID = &sp
	}
	return &c, nil
}

func nullActor(a *id.ActorID) sql.NullInt64 {
	if a == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*a), Valid: true}
}

func (s *Postgres) Create(ctx context.Context, campaign *models.Campaign) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO women_support_campaigns (title, description, location, proposed_date, proposed_time,
			status, volunteer_id, supporter_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, campaign.Title, campaign.Description, campaign.Location, campaign.ProposedDate, campaign.ProposedTime,
		string(campaign.Status), int64(campaign.VolunteerID), nullActor(campaign.SupporterID), campaign.CreatedAt).Scan(&campaign.ID)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM women_support_campaigns WHERE id = $1`, int64(campaignID))
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

func (s *Postgres) Decide(ctx context.Context, campaignID id.CampaignID, to models.Status, supporter *id.ActorID, reason string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE women_support_campaigns
		SET status = $3, supporter_id = COALESCE($4, supporter_id), rejection_reason = $5
		WHERE id = $1 AND status = $2
	`, int64(campaignID), string(models.StatusPending), string(to), nullActor(supporter), reason)
	if err != nil {
		return fmt.Errorf("decide campaign: %w", err)
	}
	return s.checkApplied(ctx, res, campaignID)
}

func (s *Postgres) Schedule(ctx context.Context, campaignID id.CampaignID, date time.Time, clock string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE women_support_campaigns
		SET status = $3, scheduled_date = $4, scheduled_time = $5
		WHERE id = $1 AND status = $2
	`, int64(campaignID), string(models.StatusApproved), string(models.StatusScheduled), date, clock)
	if err != nil {
		return fmt.Errorf("schedule campaign: %w", err)
	}
	return s.checkApplied(ctx, res, campaignID)
}

func (s *Postgres) checkApplied(ctx context.Context, res sql.Result, campaignID id.CampaignID) error {
	ok, err := postgres.RequireOneRow(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return postgres.ExplainMiss(ctx, s.db, table, int64(campaignID))
}

func (s *Postgres) ListByVolunteer(ctx context.Context, volunteer id.ActorID) ([]*models.Campaign, error) {
	return s.query(ctx, `SELECT `+campaignColumns+` FROM women_support_campaigns WHERE volunteer_id = $1 ORDER BY id DESC`,
		int64(volunteer))
}

func (s *Postgres) ListBySupporter(ctx context.Context, supporter id.ActorID) ([]*models.Campaign, error) {
	return s.query(ctx, `SELECT `+campaignColumns+` FROM women_support_campaigns WHERE supporter_id = $1 ORDER BY id DESC`,
		int64(supporter))
}

func (s *Postgres) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Campaign, error) {
	if len(statuses) == 0 {
		return s.query(ctx, `SELECT `+campaignColumns+` FROM women_support_campaigns ORDER BY id DESC`)
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return s.query(ctx, `SELECT `+campaignColumns+` FROM women_support_campaigns WHERE status = ANY($1::text[]) ORDER BY id DESC`,
		pq.Array(names))
}

func (s *Postgres) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM women_support_campaigns GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count campaigns: %w", err)
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

func (s *Postgres) query(ctx context.Context, query string, args ...any) ([]*models.Campaign, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
