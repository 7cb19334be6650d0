package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	educationmodels "sankalp/internal/education/models"
	identity "sankalp/internal/identity/models"
	legalmodels "sankalp/internal/legal/models"
	womenmodels "sankalp/internal/womensupport/models"
	id "sankalp/pkg/domain"
)

type panel struct {
	name string
	load func(ctx context.Context) (any, error)
}

// gather loads every panel concurrently; the first failure cancels the rest.
func (s *Service) gather(ctx context.Context, plan []panel) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, panelTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	results := make([]any, len(plan))
	for i, p := range plan {
		g.Go(func() error {
			start := time.Now()
			v, err := p.load(ctx)
			s.metrics.ObservePanelLatency(p.name, time.Since(start))
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(plan))
	for i, p := range plan {
		out[p.name] = results[i]
	}
	return out, nil
}

// planner picks the panels of each role.
type planner struct {
	src   Sources
	actor *identity.Actor
}

func (p *planner) Admin() ([]panel, error) {
	return []panel{
		{"education_counts", func(ctx context.Context) (any, error) { return p.src.Education.CountByStatus(ctx) }},
		{"legal_counts", func(ctx context.Context) (any, error) { return p.src.Legal.CountByStatus(ctx) }},
		{"medical_counts", func(ctx context.Context) (any, error) { return p.src.Medical.CountByStatus(ctx) }},
		{"women_support_counts", func(ctx context.Context) (any, error) { return p.src.WomenSupport.CountByStatus(ctx) }},
		{"legal_question_counts", func(ctx context.Context) (any, error) {
			return p.src.Questions.CountByStatus(ctx, id.DomainLegal)
		}},
		{"women_support_question_counts", func(ctx context.Context) (any, error) {
			return p.src.Questions.CountByStatus(ctx, id.DomainWomenSupport)
		}},
	}, nil
}

func (p *planner) Volunteer() ([]panel, error) {
	return []panel{
		{"education_queue", func(ctx context.Context) (any, error) { return p.src.Education.Queue(ctx, p.actor) }},
		{"legal_camps", func(ctx context.Context) (any, error) { return p.src.Legal.ListForRole(ctx, p.actor) }},
		{"medical_camps", func(ctx context.Context) (any, error) { return p.src.Medical.ListForActor(ctx, p.actor) }},
		{"campaigns", func(ctx context.Context) (any, error) { return p.src.WomenSupport.ListForRole(ctx, p.actor) }},
	}, nil
}

func (p *planner) Donor() ([]panel, error) {
	byStatus := func(status educationmodels.Status) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) { return p.src.Education.ListForDonor(ctx, p.actor, status) }
	}
	return []panel{
		{"forwarded", byStatus(educationmodels.StatusForwarded)},
		{"approved", byStatus(educationmodels.StatusApproved)},
		{"rejected", byStatus(educationmodels.StatusRejected)},
	}, nil
}

func (p *planner) Beneficiary() ([]panel, error) {
	return []panel{
		{"education_requests", func(ctx context.Context) (any, error) { return p.src.Education.ListMine(ctx, p.actor) }},
		{"upcoming_medical_camps", func(ctx context.Context) (any, error) { return p.src.Medical.ListUpcoming(ctx, p.actor) }},
		{"upcoming_legal_camps", func(ctx context.Context) (any, error) { return p.src.Legal.ListForRole(ctx, p.actor) }},
		{"campaigns", func(ctx context.Context) (any, error) { return p.src.WomenSupport.ListForRole(ctx, p.actor) }},
	}, nil
}

func (p *planner) Advocate() ([]panel, error) {
	camps := func(status legalmodels.Status) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) { return p.src.Legal.ListByStatus(ctx, status) }
	}
	return []panel{
		{"pending_camps", camps(legalmodels.StatusPending)},
		{"approved_camps", camps(legalmodels.StatusApproved)},
		{"scheduled_camps", camps(legalmodels.StatusScheduled)},
		{"unanswered_questions", func(ctx context.Context) (any, error) {
			return p.src.Questions.List(ctx, p.actor, id.DomainLegal, true)
		}},
	}, nil
}

func (p *planner) Supporter() ([]panel, error) {
	campaigns := func(status womenmodels.Status) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) { return p.src.WomenSupport.ListByStatus(ctx, status) }
	}
	return []panel{
		{"pending_campaigns", campaigns(womenmodels.StatusPending)},
		{"my_campaigns", func(ctx context.Context) (any, error) { return p.src.WomenSupport.ListForRole(ctx, p.actor) }},
		{"unanswered_questions", func(ctx context.Context) (any, error) {
			return p.src.Questions.List(ctx, p.actor, id.DomainWomenSupport, true)
		}},
	}, nil
}
