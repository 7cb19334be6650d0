// Package service runs women's awareness campaigns. A Volunteer addresses a
// campaign to one Supporter, who approves or rejects it from the dashboard
// or through the links in their email. Admins schedule approved campaigns.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sankalp/internal/fanout"
	"sankalp/internal/identity/gate"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/platform/metrics"
	"sankalp/internal/platform/templates"
	"sankalp/internal/platform/workflow"
	"sankalp/internal/womensupport/models"
	"sankalp/internal/womensupport/store"
	id "sankalp/pkg/domain"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/requestcontext"
)

const (
	auditDomain     = "women_support"
	defaultLinkBase = "http://localhost:8080"
	defaultReason   = "Not specified"
)

type Directory interface {
	FindByID(ctx context.Context, actorID id.ActorID) (*identity.Actor, error)
}

type Notifier interface {
	Email(ctx context.Context, recipients []fanout.EmailRecipient, notice templates.Notice)
}

type Service struct {
	campaigns store.Store
	directory Directory
	notifier  Notifier
	tracker   workflow.Tracker
	logger    *slog.Logger
	linkBase  string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
		s.tracker.Logger = logger
	}
}

func WithAuditPublisher(publisher workflow.AuditPublisher) Option {
	return func(s *Service) {
		s.tracker.Audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.tracker.Metrics = m
	}
}

func WithPublicBaseURL(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.linkBase = strings.TrimRight(base, "/")
		}
	}
}

func New(campaigns store.Store, directory Directory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		campaigns: campaigns,
		directory: directory,
		notifier:  notifier,
		tracker:   workflow.Tracker{Domain: auditDomain},
		logger:    slog.Default(),
		linkBase:  defaultLinkBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecisionLink is the unauthenticated link mailed to the chosen Supporter.
// action is "approve" or "reject".
func (s *Service) DecisionLink(campaignID id.CampaignID, action string) string {
	return fmt.Sprintf("%s/women-support/campaigns/%s/%s", s.linkBase, campaignID, action)
}

// RequestCampaign records a Volunteer's campaign and emails only the
// Supporter it is addressed to.
func (s *Service) RequestCampaign(ctx context.Context, actor *identity.Actor, req *models.CampaignRequest) (*models.Campaign, error) {
	if err := gate.Authorize(actor, identity.RoleVolunteer); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	proposed, err := id.ParseDate(req.ProposedDate)
	if err != nil {
		return nil, err
	}
	supporter, err := s.directory.FindByID(ctx, req.SupporterID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load supporter")
	}
	if supporter == nil || !supporter.Is(identity.RoleSupporter) {
		return nil, dErrors.NewValidation("invalid campaign request", map[string]string{"supporter_id": "must reference a supporter"})
	}

	campaign := &models.Campaign{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		ProposedDate: proposed,
		ProposedTime: req.ProposedTime,
		Status:       models.StatusPending,
		VolunteerID:  actor.ID,
		SupporterID:  &supporter.ID,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionCampaignRequested, auditDomain, int64(campaign.ID), int64(actor.ID)).
		Transition("", string(models.StatusPending)))

	s.notifier.Email(ctx, fanout.RecipientsOf(supporter), templates.Notice{
		Subject:  "New Women Support Campaign Request: " + campaign.Title,
		Headline: "A volunteer has asked you to support a campaign.",
		Lines:    []string{fmt.Sprintf("Volunteer %s has requested the campaign below.", actor.DisplayName())},
		Fields:   campaignFields(campaign),
		Actions: []templates.Action{
			{Label: "Approve campaign", URL: s.DecisionLink(campaign.ID, "approve")},
			{Label: "Reject campaign", URL: s.DecisionLink(campaign.ID, "reject")},
		},
	})
	return campaign, nil
}

// Decide records a Supporter's dashboard decision. A campaign approved by
// another Supporter is reported as such and left alone; repeating one's own
// approval is a no-op. Otherwise the campaign must be Pending and the
// caller becomes its supporter of record.
func (s *Service) Decide(ctx context.Context, actor *identity.Actor, campaignID id.CampaignID, req *models.DecisionRequest) (*models.Campaign, error) {
	if err := gate.Authorize(actor, identity.RoleSupporter); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	campaign, err := s.find(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.StatusApproved {
		if !campaign.ManagedBy(actor.ID) {
			return nil, s.alreadyApproved(ctx, campaign)
		}
		if req.Decision == models.StatusApproved {
			return campaign, nil
		}
	}

	reason := ""
	if req.Decision == models.StatusRejected {
		reason = req.Reason
	}
	supporter := actor.ID
	if err := s.campaigns.Decide(ctx, campaignID, req.Decision, &supporter, reason); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			if current, findErr := s.campaigns.FindByID(ctx, campaignID); findErr == nil &&
				current.Status == models.StatusApproved && !current.ManagedBy(actor.ID) {
				return nil, s.alreadyApproved(ctx, current)
			}
		}
		return nil, s.translate(ctx, err, campaignID)
	}
	campaign, err = s.load(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionCampaignDecided, auditDomain, int64(campaign.ID), int64(actor.ID)).
		Transition(string(models.StatusPending), string(req.Decision)).
		WithReason(reason))

	s.notifyDecision(ctx, campaign)
	return campaign, nil
}

func (s *Service) alreadyApproved(ctx context.Context, campaign *models.Campaign) error {
	name := "another supporter"
	if campaign.SupporterID != nil {
		if supporter, err := s.directory.FindByID(ctx, *campaign.SupporterID); err == nil {
			name = supporter.DisplayName()
		}
	}
	return s.tracker.Refused(ctx, dErrors.Newf(dErrors.CodeInvalidState, "'%s' is already approved by %s.", campaign.Title, name))
}

// ViewLink loads the campaign behind an email link without changing it.
func (s *Service) ViewLink(ctx context.Context, campaignID id.CampaignID) (*models.LinkResult, error) {
	campaign, err := s.find(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return &models.LinkResult{Campaign: campaign}, nil
}

// ApproveViaLink approves a Pending campaign for whoever holds the link.
// actor may be nil; an authenticated Supporter becomes the supporter of
// record. A campaign that has left Pending is reported unchanged.
func (s *Service) ApproveViaLink(ctx context.Context, campaignID id.CampaignID, actor *identity.Actor) (*models.LinkResult, error) {
	var supporter *id.ActorID
	var actorID int64
	if actor != nil {
		actorID = int64(actor.ID)
		if actor.Is(identity.RoleSupporter) {
			sp := actor.ID
			supporter = &sp
		}
	}
	return s.decideViaLink(ctx, campaignID, models.StatusApproved, supporter, actorID)
}

// RejectViaLink rejects a Pending campaign for whoever holds the link.
func (s *Service) RejectViaLink(ctx context.Context, campaignID id.CampaignID) (*models.LinkResult, error) {
	return s.decideViaLink(ctx, campaignID, models.StatusRejected, nil, 0)
}

func (s *Service) decideViaLink(ctx context.Context, campaignID id.CampaignID, to models.Status, supporter *id.ActorID, actorID int64) (*models.LinkResult, error) {
	campaign, err := s.find(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.StatusPending {
		return &models.LinkResult{Campaign: campaign}, nil
	}
	err = s.campaigns.Decide(ctx, campaignID, to, supporter, "")
	switch {
	case errors.Is(err, sentinel.ErrInvalidState):
		return s.ViewLink(ctx, campaignID)
	case err != nil:
		return nil, s.translate(ctx, err, campaignID)
	}
	if campaign, err = s.load(ctx, campaignID); err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionCampaignDecided, auditDomain, int64(campaign.ID), actorID).
		Transition(string(models.StatusPending), string(to)).
		WithReason("decided via email link"))

	s.notifyDecision(ctx, campaign)
	return &models.LinkResult{Campaign: campaign, Changed: true}, nil
}

// Schedule fixes the date and time of an Approved campaign and tells both
// the Volunteer and the Supporter.
func (s *Service) Schedule(ctx context.Context, actor *identity.Actor, campaignID id.CampaignID, req *models.ScheduleRequest) (*models.Campaign, error) {
	if err := gate.Authorize(actor, identity.RoleAdmin); err != nil {
		return nil, s.tracker.Refused(ctx, err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	date, err := id.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.campaigns.Schedule(ctx, campaignID, date, req.Time); err != nil {
		return nil, s.translate(ctx, err, campaignID)
	}
	campaign, err := s.load(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	s.tracker.Committed(ctx, audit.NewEvent(ctx, audit.ActionCampaignScheduled, auditDomain, int64(campaign.ID), int64(actor.ID)).
		Transition(string(models.StatusApproved), string(models.StatusScheduled)))

	recipients := s.lookup(ctx, campaign, campaign.VolunteerID)
	if campaign.SupporterID != nil {
		recipients = append(recipients, s.lookup(ctx, campaign, *campaign.SupporterID)...)
	}
	s.notifier.Email(ctx, fanout.RecipientsOf(recipients...), templates.Notice{
		Subject:  "Campaign Scheduled: " + campaign.Title,
		Headline: fmt.Sprintf("The campaign is scheduled for %s at %s.", id.FormatDate(campaign.ScheduledDate), campaign.ScheduledTime),
		Fields:   campaignFields(campaign),
	})
	return campaign, nil
}

// ListForRole returns a Volunteer's own campaigns, the campaigns a
// Supporter manages, approved and scheduled campaigns for Beneficiaries, and
// everything for Admins.
func (s *Service) ListForRole(ctx context.Context, actor *identity.Actor) ([]*models.Campaign, error) {
	if err := gate.AuthorizeAny(actor, identity.RoleVolunteer, identity.RoleSupporter, identity.RoleBeneficiary, identity.RoleAdmin); err != nil {
		return nil, err
	}
	var (
		out []*models.Campaign
		err error
	)
	switch actor.Role {
	case identity.RoleVolunteer:
		out, err = s.campaigns.ListByVolunteer(ctx, actor.ID)
	case identity.RoleSupporter:
		out, err = s.campaigns.ListBySupporter(ctx, actor.ID)
	case identity.RoleBeneficiary:
		out, err = s.campaigns.ListByStatus(ctx, models.StatusApproved, models.StatusScheduled)
	default:
		out, err = s.campaigns.ListByStatus(ctx)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return out, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses ...models.Status) ([]*models.Campaign, error) {
	out, err := s.campaigns.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return out, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	counts, err := s.campaigns.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count campaigns")
	}
	return counts, nil
}

func (s *Service) notifyDecision(ctx context.Context, campaign *models.Campaign) {
	notice := templates.Notice{
		Subject:  fmt.Sprintf("Your Campaign '%s' Has Been Approved!", campaign.Title),
		Headline: "A supporter has approved your campaign.",
		Fields:   campaignFields(campaign),
	}
	if campaign.Status == models.StatusRejected {
		reason := campaign.RejectionReason
		if reason == "" {
			reason = defaultReason
		}
		notice.Subject = fmt.Sprintf("Your Campaign '%s' Was Rejected", campaign.Title)
		notice.Headline = "Your campaign request was not accepted."
		notice.Lines = []string{"Reason: " + reason}
	}
	s.notifier.Email(ctx, fanout.RecipientsOf(s.lookup(ctx, campaign, campaign.VolunteerID)...), notice)
}

// lookup resolves one recipient, logging and skipping a failed lookup.
func (s *Service) lookup(ctx context.Context, campaign *models.Campaign, actorID id.ActorID) []*identity.Actor {
	a, err := s.directory.FindByID(ctx, actorID)
	if err != nil {
		s.logger.WarnContext(ctx, "recipient lookup failed, skipping email",
			"request_id", requestcontext.RequestID(ctx),
			"campaign_id", campaign.ID,
			"actor_id", actorID,
			"error", err,
		)
		return nil
	}
	return []*identity.Actor{a}
}

func campaignFields(c *models.Campaign) []templates.Field {
	fields := []templates.Field{
		{Label: "Title", Value: c.Title},
		{Label: "Location", Value: c.Location},
		{Label: "Proposed date", Value: id.FormatDate(&c.ProposedDate)},
	}
	if c.ProposedTime != "" {
		fields = append(fields, templates.Field{Label: "Proposed time", Value: c.ProposedTime})
	}
	if c.ScheduledDate != nil {
		fields = append(fields,
			templates.Field{Label: "Scheduled date", Value: id.FormatDate(c.ScheduledDate)},
			templates.Field{Label: "Scheduled time", Value: c.ScheduledTime},
		)
	}
	return append(fields, templates.Field{Label: "Description", Value: c.Description})
}

func (s *Service) find(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	return campaign, nil
}

func (s *Service) load(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload campaign")
	}
	return campaign, nil
}

func (s *Service) translate(ctx context.Context, err error, campaignID id.CampaignID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "campaign not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		msg := "This campaign can no longer be changed."
		if c, findErr := s.campaigns.FindByID(ctx, campaignID); findErr == nil {
			msg = fmt.Sprintf("This campaign is already %s.", strings.ToLower(string(c.Status)))
		}
		return s.tracker.Refused(ctx, dErrors.New(dErrors.CodeInvalidState, msg))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update campaign")
	}
}
