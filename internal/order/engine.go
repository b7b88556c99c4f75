package order

import (
	"context"

	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"

	"go.uber.org/zap"
)

// Engine applies state machine transitions. It never opens a transaction
// itself; q is the caller's transaction.
type Engine struct {
	metrics *metrics.Registry
}

func NewEngine(reg *metrics.Registry) *Engine {
	return &Engine{metrics: reg}
}

// Transition moves o to target and appends exactly one audit event. On
// success o reflects the new status.
func (e *Engine) Transition(ctx context.Context, q db.DBTX, o *Order, to Status, actor Actor, requestID string) (*Event, error) {
	from := o.Status
	if !from.CanTransitionTo(to) {
		return nil, &TransitionError{From: from, To: to}
	}

	repo := NewRepository(q)
	updatedAt, err := repo.UpdateStatus(ctx, o.ID, from, to)
	if err != nil {
		return nil, err
	}

	ev := &Event{
		OrderID:     o.ID,
		Action:      ActionStatusChange,
		FromStatus:  from,
		ToStatus:    to,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
	}
	if requestID != "" {
		ev.RequestID = &requestID
	}
	if err := repo.InsertEvent(ctx, ev); err != nil {
		return nil, err
	}

	o.Status = to
	o.UpdatedAt = updatedAt

	e.metrics.ObserveTransition(from.String(), to.String())
	logger.FromCtx(ctx).Info("order transitioned",
		zap.Int64("order_id", o.ID),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	return ev, nil
}
