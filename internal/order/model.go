package order

import "time"

const ActionStatusChange = "STATUS_CHANGE"

type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Reference  *string   `json:"reference"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Items      []Item    `json:"items"`
}

type Item struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

// Event is one row of the append-only audit trail.
type Event struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	Action      string    `json:"action"`
	FromStatus  Status    `json:"from_status"`
	ToStatus    Status    `json:"to_status"`
	ActorUserID *int64    `json:"actor_user_id"`
	ActorRole   *string   `json:"actor_role"`
	RequestID   *string   `json:"request_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Actor identifies who caused a transition. Either field may be nil.
type Actor struct {
	UserID *int64
	Role   *string
}

type CreateOrderInput struct {
	CustomerID int64       `json:"customer_id"`
	Reference  *string     `json:"reference"`
	Items      []ItemInput `json:"items"`
}

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}
