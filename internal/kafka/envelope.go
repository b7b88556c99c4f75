package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventOrderStatusChanged = "OrderStatusChanged"
	eventVersion            = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderStatusChangedPayload struct {
	OrderID     int64   `json:"order_id"`
	CustomerID  int64   `json:"customer_id"`
	Reference   *string `json:"reference,omitempty"`
	EventID     int64   `json:"audit_event_id"`
	FromStatus  string  `json:"from_status"`
	ToStatus    string  `json:"to_status"`
	ActorUserID *int64  `json:"actor_user_id,omitempty"`
	ActorRole   *string `json:"actor_role,omitempty"`
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// PartitionKey keeps every event of one order on one partition, in order.
func PartitionKey(orderID int64) []byte {
	return []byte(fmt.Sprintf("%d", orderID))
}
