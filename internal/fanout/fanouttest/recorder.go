// Package fanouttest records notifications synchronously for service tests.
package fanouttest

import (
	"context"
	"sync"

	"sankalp/internal/fanout"
	"sankalp/internal/platform/templates"
	id "sankalp/pkg/domain"
)

type InAppCall struct {
	Recipients []id.ActorID
	Message    string
}

type EmailCall struct {
	Recipients []fanout.EmailRecipient
	Notice     templates.Notice
}

type SMSCall struct {
	To   string
	Body string
}

// Recorder satisfies the notifier interfaces the workflow services depend on.
type Recorder struct {
	mu     sync.Mutex
	inApps []InAppCall
	emails []EmailCall
	texts  []SMSCall
}

func (r *Recorder) InApp(_ context.Context, recipients []id.ActorID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inApps = append(r.inApps, InAppCall{Recipients: append([]id.ActorID(nil), recipients...), Message: message})
}

func (r *Recorder) Email(_ context.Context, recipients []fanout.EmailRecipient, notice templates.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, EmailCall{Recipients: append([]fanout.EmailRecipient(nil), recipients...), Notice: notice})
}

func (r *Recorder) SMS(_ context.Context, to, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, SMSCall{To: to, Body: body})
}

func (r *Recorder) InApps() []InAppCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]InAppCall(nil), r.inApps...)
}

func (r *Recorder) Emails() []EmailCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EmailCall(nil), r.emails...)
}

func (r *Recorder) Texts() []SMSCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SMSCall(nil), r.texts...)
}

// Total is the number of notifier calls across all channels.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inApps) + len(r.emails) + len(r.texts)
}

// EmailAddresses flattens every recipient address emailed so far.
func (r *Recorder) EmailAddresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.emails {
		for _, rc := range c.Recipients {
			out = append(out, rc.Address)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inApps, r.emails, r.texts = nil, nil, nil
}
