package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/platform/metrics"
	dErrors "sankalp/pkg/domain-errors"
	audit "sankalp/pkg/platform/audit"
	"sankalp/pkg/platform/audit/store/memory"
)

type storeEmitter struct{ *memory.InMemoryStore }

func (e storeEmitter) Emit(ctx context.Context, ev audit.Event) error { return e.Append(ctx, ev) }

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, audit.Event) error { return errors.New("buffer full") }

func TestCommitted(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	events := memory.NewInMemoryStore()
	tr := Tracker{Domain: "legal", Audit: storeEmitter{events}, Metrics: m}

	ev := audit.NewEvent(context.Background(), audit.ActionLegalCampDecided, "", 7, 3).Transition("Pending", "Approved")
	tr.Committed(context.Background(), ev)

	got, err := events.ListByRecord(context.Background(), "legal", 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legal", got[0].Domain, "the tracker stamps its domain")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("legal", "Approved")))
}

func TestCommittedSwallowsAuditFailure(t *testing.T) {
	tr := Tracker{Domain: "medical", Audit: failingEmitter{}}
	assert.NotPanics(t, func() {
		tr.Committed(context.Background(), audit.Event{ToStatus: "Scheduled"})
	})
}

func TestRefused(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	tr := Tracker{Domain: "education", Metrics: m}

	err := dErrors.New(dErrors.CodeInvalidState, "already processed")
	assert.Same(t, err, tr.Refused(context.Background(), err))
	tr.Refused(context.Background(), dErrors.New(dErrors.CodeForbidden, "no"))
	tr.Refused(context.Background(), dErrors.New(dErrors.CodeNotFound, "missing"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardRejections.WithLabelValues("education", "invalid_state")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardRejections.WithLabelValues("education", "forbidden")))
}
