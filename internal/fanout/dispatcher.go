// Package fanout delivers notifications after a workflow transition commits.
// Delivery is best-effort: tasks run on a bounded worker pool, are dropped
// when the queue is full, and are never retried.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sankalp/pkg/platform/circuit"
	"sankalp/pkg/requestcontext"
)

// Channel names an outbound delivery channel.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

var tracer = otel.Tracer("sankalp/fanout")

// Task performs one delivery to one recipient.
type Task func(ctx context.Context) error

type job struct {
	ctx     context.Context
	channel Channel
	target  string
	task    Task
}

type Dispatcher struct {
	queue       chan job
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
	logger      *slog.Logger
	metrics     *Metrics
	sendTimeout time.Duration
	breakers    map[Channel]*circuit.Breaker
	// skipLogged is set once a skip has been logged at Warn for the current
	// open period of the channel's breaker.
	skipLogged map[Channel]*atomic.Bool
}

type Option func(*dispatcherOptions)

type dispatcherOptions struct {
	logger      *slog.Logger
	metrics     *Metrics
	sendTimeout time.Duration
	breakerOpts []circuit.Option
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *dispatcherOptions) {
		o.metrics = m
	}
}

// WithSendTimeout bounds each task.
func WithSendTimeout(d time.Duration) Option {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.sendTimeout = d
		}
	}
}

// WithBreakerOptions configures the per-channel circuit breakers.
func WithBreakerOptions(opts ...circuit.Option) Option {
	return func(o *dispatcherOptions) {
		o.breakerOpts = append(o.breakerOpts, opts...)
	}
}

// NewDispatcher starts workers goroutines draining a queue of queueSize tasks.
func NewDispatcher(workers, queueSize int, opts ...Option) *Dispatcher {
	o := dispatcherOptions{
		logger:      slog.Default(),
		sendTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	d := &Dispatcher{
		queue:       make(chan job, queueSize),
		logger:      o.logger,
		metrics:     o.metrics,
		sendTimeout: o.sendTimeout,
		breakers:    make(map[Channel]*circuit.Breaker, 3),
		skipLogged:  make(map[Channel]*atomic.Bool, 3),
	}
	for _, ch := range []Channel{ChannelInApp, ChannelEmail, ChannelSMS} {
		d.breakers[ch] = circuit.New(string(ch), o.breakerOpts...)
		d.skipLogged[ch] = new(atomic.Bool)
	}
	d.wg.Add(workers)
	for range workers {
		go d.work()
	}
	return d
}

// Submit enqueues task without blocking. The task runs with a context detached
// from ctx's cancellation but carrying its values. It reports false when the
// task was dropped.
func (d *Dispatcher) Submit(ctx context.Context, ch Channel, target string, task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, ch, target, "dispatcher closed")
		return false
	}
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), channel: ch, target: target, task: task}:
		d.metrics.count(ch, outcomeSubmitted)
		d.metrics.setQueued(len(d.queue))
		return true
	default:
		d.drop(ctx, ch, target, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(ctx context.Context, ch Channel, target, reason string) {
	d.metrics.count(ch, outcomeDropped)
	d.logger.WarnContext(ctx, "fan-out task dropped",
		"channel", ch,
		"target", target,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.metrics.setQueued(len(d.queue))
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	breaker := d.breakers[j.channel]
	if breaker != nil && !breaker.Allow() {
		d.metrics.count(j.channel, outcomeSkipped)
		level := slog.LevelDebug
		if d.skipLogged[j.channel].CompareAndSwap(false, true) {
			level = slog.LevelWarn
		}
		d.logger.Log(j.ctx, level, "fan-out channel circuit open, skipping",
			"channel", j.channel,
			"target", j.target,
			"request_id", requestcontext.RequestID(j.ctx),
		)
		return
	}

	ctx, span := tracer.Start(j.ctx, "fanout."+string(j.channel),
		trace.WithAttributes(attribute.String("fanout.channel", string(j.channel))),
	)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := d.call(ctx, j.task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		d.metrics.count(j.channel, outcomeFailed)
		d.logger.WarnContext(ctx, "fan-out delivery failed",
			"channel", j.channel,
			"target", j.target,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if breaker != nil {
			if _, change := breaker.RecordFailure(); change.Opened {
				d.skipLogged[j.channel].Store(false)
				d.logger.ErrorContext(ctx, "fan-out channel circuit opened", "channel", j.channel)
			}
		}
		return
	}
	d.metrics.count(j.channel, outcomeDelivered)
	if breaker != nil {
		if _, change := breaker.RecordSuccess(); change.Closed {
			d.logger.InfoContext(ctx, "fan-out channel circuit closed", "channel", j.channel)
		}
	}
}

// call runs task and converts a panic into an error so one bad task cannot
// take a worker down.
func (d *Dispatcher) call(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

// Shutdown stops accepting tasks and waits for queued ones to finish or for
// ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("fan-out drain incomplete"), ctx.Err())
	}
}
