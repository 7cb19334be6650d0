package fanout

import (
	"context"
	"log/slog"

	"sankalp/internal/fanout/email"
	"sankalp/internal/fanout/sms"
	identity "sankalp/internal/identity/models"
	"sankalp/internal/platform/templates"
	id "sankalp/pkg/domain"
	emailaddr "sankalp/pkg/email"
	"sankalp/pkg/platform/strings"
	"sankalp/pkg/requestcontext"
)

// InboxWriter stores one in-app notification row.
type InboxWriter interface {
	Deliver(ctx context.Context, recipient id.ActorID, message string) error
}

type NoticeRenderer interface {
	Notice(n templates.Notice) (templates.Body, error)
}

// EmailRecipient is an address with the name used in the greeting. An empty
// name is derived from the address.
type EmailRecipient struct {
	Address string
	Name    string
}

// RecipientsOf addresses actors by username.
func RecipientsOf(actors ...*identity.Actor) []EmailRecipient {
	out := make([]EmailRecipient, 0, len(actors))
	for _, a := range actors {
		if a == nil {
			continue
		}
		out = append(out, EmailRecipient{Address: a.Email, Name: a.Username})
	}
	return out
}

// Notifier turns a committed transition into one dispatcher task per
// recipient per channel. None of its methods block on delivery or report
// delivery errors.
type Notifier struct {
	dispatcher *Dispatcher
	inbox      InboxWriter
	renderer   NoticeRenderer
	mail       email.Sender
	texts      sms.Sender
	router     sms.Router
	logger     *slog.Logger
}

func NewNotifier(dispatcher *Dispatcher, inbox InboxWriter, renderer NoticeRenderer, mail email.Sender, texts sms.Sender, router sms.Router, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		dispatcher: dispatcher,
		inbox:      inbox,
		renderer:   renderer,
		mail:       mail,
		texts:      texts,
		router:     router,
		logger:     logger,
	}
}

// InApp writes message to each distinct recipient's inbox.
func (n *Notifier) InApp(ctx context.Context, recipients []id.ActorID, message string) {
	seen := make(map[id.ActorID]struct{}, len(recipients))
	for _, r := range recipients {
		if r == 0 {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		n.dispatcher.Submit(ctx, ChannelInApp, r.String(), func(ctx context.Context) error {
			return n.inbox.Deliver(ctx, r, message)
		})
	}
}

// Email renders notice for each distinct address and sends one message per
// recipient.
func (n *Notifier) Email(ctx context.Context, recipients []EmailRecipient, notice templates.Notice) {
	names := make(map[string]string, len(recipients))
	addresses := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addr := emailaddr.Normalize(r.Address)
		if addr == "" {
			n.logger.WarnContext(ctx, "skipping email to unusable address", "address", r.Address)
			continue
		}
		if _, ok := names[addr]; !ok {
			names[addr] = r.Name
		}
		addresses = append(addresses, addr)
	}

	for _, addr := range strings.Addresses(addresses) {
		personal := notice
		personal.Recipient = names[addr]
		if personal.Recipient == "" {
			personal.Recipient = emailaddr.DisplayName(addr)
		}
		n.dispatcher.Submit(ctx, ChannelEmail, addr, func(ctx context.Context) error {
			body, err := n.renderer.Notice(personal)
			if err != nil {
				return err
			}
			return n.mail.Send(ctx, email.Message{
				To:      addr,
				Subject: personal.Subject,
				HTML:    body.HTML,
				Text:    body.Text,
			})
		})
	}
}

// SMS texts body to the number the router resolves for logicalRecipient.
func (n *Notifier) SMS(ctx context.Context, logicalRecipient, body string) {
	to, ok := n.router.Route(logicalRecipient)
	if !ok {
		n.dispatcher.metrics.count(ChannelSMS, outcomeSkipped)
		n.logger.WarnContext(ctx, "no sms destination, skipping",
			"recipient", logicalRecipient,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	n.dispatcher.Submit(ctx, ChannelSMS, to, func(ctx context.Context) error {
		return n.texts.Send(ctx, to, body)
	})
}
