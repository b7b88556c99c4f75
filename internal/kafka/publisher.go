package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"warehouse-be/internal/logger"
	"warehouse-be/internal/order"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Enqueuer is satisfied by *Producer.
type Enqueuer interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// OrderEventPublisher turns committed audit events into status-change
// envelopes.
type OrderEventPublisher struct {
	out    Enqueuer
	source string
	now    func() time.Time
}

func NewOrderEventPublisher(out Enqueuer, source string) *OrderEventPublisher {
	return &OrderEventPublisher{out: out, source: source, now: time.Now}
}

func (p *OrderEventPublisher) PublishStatusChanged(ctx context.Context, o *order.Order, ev *order.Event) error {
	env, err := p.envelope(ctx, o, ev)
	if err != nil {
		return err
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	return p.out.Publish(PartitionKey(o.ID), value,
		kafka.Header{Key: "event_type", Value: []byte(env.EventType)},
		kafka.Header{Key: "event_id", Value: []byte(env.EventID)},
	)
}

func (p *OrderEventPublisher) envelope(ctx context.Context, o *order.Order, ev *order.Event) (Envelope, error) {
	payload, err := json.Marshal(OrderStatusChangedPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Reference:   o.Reference,
		EventID:     ev.ID,
		FromStatus:  ev.FromStatus.String(),
		ToStatus:    ev.ToStatus.String(),
		ActorUserID: ev.ActorUserID,
		ActorRole:   ev.ActorRole,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}

	occurred := ev.CreatedAt
	if occurred.IsZero() {
		occurred = p.now()
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		EventVersion:  eventVersion,
		OccurredAt:    occurred.UTC(),
		Producer:      p.source,
		TraceID:       logger.RequestIDFrom(ctx),
		CorrelationID: strconv.FormatInt(o.ID, 10),
		Payload:       payload,
	}, nil
}
