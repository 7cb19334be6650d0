package fanout

//go:generate mockgen -destination=mocks/senders.go -package=mocks sankalp/internal/fanout InboxWriter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sankalp/internal/fanout/email"
	"sankalp/internal/fanout/mocks"
	"sankalp/internal/fanout/sms"
	"sankalp/internal/platform/config"
	"sankalp/internal/platform/templates"
	id "sankalp/pkg/domain"
)

type notifierFixture struct {
	dispatcher *Dispatcher
	inbox      *mocks.MockInboxWriter
	mail       *mocks.MockEmailSender
	texts      *mocks.MockSMSSender
	notifier   *Notifier
}

func newNotifierFixture(t *testing.T, router sms.Router, opts ...Option) *notifierFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &notifierFixture{
		dispatcher: NewDispatcher(1, 32, append([]Option{WithLogger(quietLogger())}, opts...)...),
		inbox:      mocks.NewMockInboxWriter(ctrl),
		mail:       mocks.NewMockEmailSender(ctrl),
		texts:      mocks.NewMockSMSSender(ctrl),
	}
	f.notifier = NewNotifier(f.dispatcher, f.inbox, templates.MustNew(), f.mail, f.texts, router, quietLogger())
	return f
}

func (f *notifierFixture) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, f.dispatcher.Shutdown(context.Background()))
}

func TestInAppOnePerRecipient(t *testing.T) {
	f := newNotifierFixture(t, sms.FixedRecipient{})
	f.inbox.EXPECT().Deliver(gomock.Any(), id.ActorID(1), "New request").Return(nil)
	f.inbox.EXPECT().Deliver(gomock.Any(), id.ActorID(2), "New request").Return(nil)

	f.notifier.InApp(context.Background(), []id.ActorID{1, 2, 1, 0}, "New request")
	f.drain(t)
}

func TestInAppFailureIsContained(t *testing.T) {
	f := newNotifierFixture(t, sms.FixedRecipient{})
	f.inbox.EXPECT().Deliver(gomock.Any(), id.ActorID(1), gomock.Any()).Return(errors.New("db down"))
	f.inbox.EXPECT().Deliver(gomock.Any(), id.ActorID(2), gomock.Any()).Return(nil)

	assert.NotPanics(t, func() {
		f.notifier.InApp(context.Background(), []id.ActorID{1, 2}, "hello")
	})
	f.drain(t)
}

func TestEmailRendersPerRecipient(t *testing.T) {
	f := newNotifierFixture(t, sms.FixedRecipient{})

	var sent []email.Message
	f.mail.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg email.Message) error {
			sent = append(sent, msg)
			return nil
		}).Times(2)

	f.notifier.Email(context.Background(), []EmailRecipient{
		{Address: "Meera@Example.org", Name: "meera"},
		{Address: "meera@example.org"},
		{Address: "reception@cityhospital.in"},
		{Address: "not-an-address"},
	}, templates.Notice{Subject: "New Legal Camp Request: Rights 101", Headline: "Please review"})
	f.drain(t)

	require.Len(t, sent, 2)
	byAddress := map[string]email.Message{}
	for _, m := range sent {
		byAddress[m.To] = m
	}
	assert.Contains(t, byAddress["meera@example.org"].HTML, "Dear meera")
	assert.Contains(t, byAddress["reception@cityhospital.in"].Text, "Dear Reception")
	assert.Equal(t, "New Legal Camp Request: Rights 101", byAddress["meera@example.org"].Subject)
}

func TestSMSUsesRouter(t *testing.T) {
	t.Run("fixed recipient overrides the logical number", func(t *testing.T) {
		f := newNotifierFixture(t, sms.FixedRecipient{Number: "+910000000000"})
		f.texts.EXPECT().Send(gomock.Any(), "+910000000000", "Your request was approved").Return(nil)

		f.notifier.SMS(context.Background(), "+919876543210", "Your request was approved")
		f.drain(t)
	})

	t.Run("no destination sends nothing and counts the skip", func(t *testing.T) {
		m := NewMetrics(prometheus.NewRegistry())
		f := newNotifierFixture(t, sms.DirectRecipient{}, WithMetrics(m))
		f.notifier.SMS(context.Background(), "", "ignored")
		f.drain(t)

		assert.Equal(t, 1.0, promtestutil.ToFloat64(m.Tasks.WithLabelValues(string(ChannelSMS), outcomeSkipped)))
	})
}

func TestSMSWithDefaultConfigAttemptsOneSend(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.False(t, cfg.IsProduction())

	f := newNotifierFixture(t, sms.NewRouter(cfg.Environment, cfg.SMS))
	f.texts.EXPECT().Send(gomock.Any(), "+912222222222", "Your request was forwarded to a donor").Return(nil).Times(1)

	f.notifier.SMS(context.Background(), "+912222222222", "Your request was forwarded to a donor")
	f.drain(t)
}
