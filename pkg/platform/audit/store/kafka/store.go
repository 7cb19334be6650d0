// Package kafka publishes audit events to a Kafka topic. The store decorates
// another audit.Store: reads and the durable copy stay with the wrapped store,
// Kafka receives a stream for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "sankalp/pkg/platform/audit"
)

type Store struct {
	next   audit.Store
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New connects a producer for topic. The wrapped store must not be nil.
func New(next audit.Store, brokers []string, topic string, opts ...Option) (*Store, error) {
	if next == nil {
		return nil, errors.New("kafka audit store requires a backing store")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	s := &Store{next: next, client: client, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureTopic creates the audit topic when it does not exist yet.
func (s *Store) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

type payload struct {
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	Domain     string `json:"domain"`
	RecordID   int64  `json:"record_id"`
	ActorID    int64  `json:"actor_id,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Device     string `json:"device,omitempty"`
}

// Append persists through the wrapped store, then produces asynchronously.
// Produce failures are logged; the durable copy already exists.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if err := s.next.Append(ctx, event); err != nil {
		return err
	}
	value, err := json.Marshal(payload{
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Action:     string(event.Action),
		Domain:     event.Domain,
		RecordID:   event.RecordID,
		ActorID:    event.ActorID,
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
		Device:     event.Device,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.Domain + ":" + strconv.FormatInt(event.RecordID, 10)),
		Value: value,
	}
	s.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("failed to publish audit event",
				"action", event.Action,
				"domain", event.Domain,
				"record_id", event.RecordID,
				"error", err,
			)
		}
	})
	return nil
}

func (s *Store) ListByRecord(ctx context.Context, domain string, recordID int64) ([]audit.Event, error) {
	return s.next.ListByRecord(ctx, domain, recordID)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.next.ListRecent(ctx, limit)
}

// Close flushes buffered records and closes the client.
func (s *Store) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
