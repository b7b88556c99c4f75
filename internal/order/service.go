package order

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode/utf8"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/db"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/utils"

	"go.uber.org/zap"
)

const maxReferenceLen = 50

// Ledger is the stock side of a lifecycle operation. Both calls run on the
// caller's transaction.
type Ledger interface {
	Reserve(ctx context.Context, tx db.DBTX, orderID int64) error
	Restock(ctx context.Context, tx db.DBTX, orderID int64) error
}

// Cache holds order snapshots. Implementations swallow their own failures.
type Cache interface {
	Get(ctx context.Context, id int64) (*Order, bool)
	Set(ctx context.Context, o *Order)
	Invalidate(ctx context.Context, id int64)
}

// Publisher announces committed status changes. Delivery is best effort.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, o *Order, ev *Event) error
}

type Service interface {
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Events(ctx context.Context, id int64) ([]Event, error)
	Reserve(ctx context.Context, id int64) (*Order, error)
	RetryReserve(ctx context.Context, id int64) (*Order, error)
	StartPick(ctx context.Context, id int64) (*Order, error)
	ConfirmPick(ctx context.Context, id int64) (*Order, error)
	Ship(ctx context.Context, id int64) (*Order, error)
	Cancel(ctx context.Context, id int64) (*Order, error)
}

type Option func(*service)

func WithCache(c Cache) Option { return func(s *service) { s.cache = c } }

func WithPublisher(p Publisher) Option { return func(s *service) { s.publisher = p } }

func WithMetrics(reg *metrics.Registry) Option { return func(s *service) { s.metrics = reg } }

type service struct {
	conn      *sql.DB
	ledger    Ledger
	cache     Cache
	publisher Publisher
	metrics   *metrics.Registry
	engine    *Engine
}

func NewService(conn *sql.DB, ledger Ledger, opts ...Option) Service {
	s := &service{conn: conn, ledger: ledger}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = NewEngine(s.metrics)
	return s
}

func (s *service) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	var out *Order
	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		var err error
		out, err = NewRepository(tx).Create(ctx, in)
		return err
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, apperr.BadRequest("order references a nonexistent product")
		}
		log.Error("failed to create order", zap.Error(err))
		return nil, apperr.Internal("could not create order", err)
	}

	log.Info("order created", zap.Int64("order_id", out.ID), zap.Int("items", len(out.Items)))
	return out, nil
}

func validateCreate(in *CreateOrderInput) error {
	if in.CustomerID <= 0 {
		return apperr.Validation("customer_id must be a positive integer")
	}
	if in.Reference != nil {
		ref := strings.TrimSpace(*in.Reference)
		if utf8.RuneCountInString(ref) > maxReferenceLen {
			return apperr.Validation("reference must be at most 50 characters")
		}
		if ref == "" {
			in.Reference = nil
		} else {
			in.Reference = &ref
		}
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return apperr.Validation("items.product_id must be a positive integer")
		}
		if it.Qty <= 0 {
			return apperr.Validation("items.qty must be greater than 0")
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*Order, error) {
	if s.cache != nil {
		if o, ok := s.cache.Get(ctx, id); ok {
			return o, nil
		}
	}

	o, err := NewRepository(s.conn).Get(ctx, id)
	if err != nil {
		return nil, classify(err, "could not load order")
	}

	// Only terminal snapshots are cached; a live one can be overtaken by a
	// transition committing before Set lands.
	if s.cache != nil && o.Status.Terminal() {
		s.cache.Set(ctx, o)
	}
	return o, nil
}

func (s *service) Events(ctx context.Context, id int64) ([]Event, error) {
	repo := NewRepository(s.conn)
	if _, err := repo.Get(ctx, id); err != nil {
		return nil, classify(err, "could not load order")
	}

	events, err := repo.ListEvents(ctx, id)
	if err != nil {
		return nil, classify(err, "could not load order events")
	}
	return events, nil
}

func (s *service) Reserve(ctx context.Context, id int64) (*Order, error) {
	o, ev, err := s.mutate(ctx, "Reserve", id, func(tx *sql.Tx, o *Order) (*Event, error) {
		if o.Status.AtOrPast(StatusReserved) {
			return nil, nil
		}
		if o.Status == StatusFailedReservation {
			return nil, apperr.Conflict("order previously failed reservation; use retry-reserve")
		}
		return s.reserve(ctx, tx, o)
	})
	if err != nil {
		var stockErr *inventory.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.markFailedReservation(ctx, id)
		}
		return nil, err
	}

	s.afterCommit(ctx, o, ev)
	return o, nil
}

func (s *service) RetryReserve(ctx context.Context, id int64) (*Order, error) {
	o, ev, err := s.mutate(ctx, "RetryReserve", id, func(tx *sql.Tx, o *Order) (*Event, error) {
		if o.Status.AtOrPast(StatusReserved) {
			return nil, nil
		}
		if o.Status != StatusFailedReservation {
			return nil, apperr.Conflict("retry reserve allowed only for FAILED_RESERVATION; current: " + o.Status.String())
		}
		return s.reserve(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, o, ev)
	return o, nil
}

func (s *service) StartPick(ctx context.Context, id int64) (*Order, error) {
	return s.advance(ctx, "StartPick", id, StatusPicking)
}

func (s *service) ConfirmPick(ctx context.Context, id int64) (*Order, error) {
	return s.advance(ctx, "ConfirmPick", id, StatusPicked)
}

func (s *service) Ship(ctx context.Context, id int64) (*Order, error) {
	return s.advance(ctx, "Ship", id, StatusShipped)
}

func (s *service) Cancel(ctx context.Context, id int64) (*Order, error) {
	o, ev, err := s.mutate(ctx, "Cancel", id, func(tx *sql.Tx, o *Order) (*Event, error) {
		switch o.Status {
		case StatusCancelled:
			return nil, nil
		case StatusShipped:
			return nil, apperr.Conflict("cannot cancel a shipped order")
		case StatusReserved, StatusPicking, StatusPicked:
			if err := s.ledger.Restock(ctx, tx, o.ID); err != nil {
				return nil, err
			}
		}
		return s.engine.Transition(ctx, tx, o, StatusCancelled, actorFrom(ctx), logger.RequestIDFrom(ctx))
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, o, ev)
	return o, nil
}

// advance is a plain forward move with no stock effect.
func (s *service) advance(ctx context.Context, method string, id int64, target Status) (*Order, error) {
	o, ev, err := s.mutate(ctx, method, id, func(tx *sql.Tx, o *Order) (*Event, error) {
		if o.Status.AtOrPast(target) {
			return nil, nil
		}
		return s.engine.Transition(ctx, tx, o, target, actorFrom(ctx), logger.RequestIDFrom(ctx))
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, o, ev)
	return o, nil
}

// reserve takes stock and moves o to RESERVED. The transition is checked
// first so an illegal move never touches stock.
func (s *service) reserve(ctx context.Context, tx *sql.Tx, o *Order) (*Event, error) {
	if !o.Status.CanTransitionTo(StatusReserved) {
		return nil, &TransitionError{From: o.Status, To: StatusReserved}
	}
	if err := s.ledger.Reserve(ctx, tx, o.ID); err != nil {
		return nil, err
	}
	return s.engine.Transition(ctx, tx, o, StatusReserved, actorFrom(ctx), logger.RequestIDFrom(ctx))
}

// mutate runs fn on the locked order inside one transaction. fn returns a
// nil event to signal a short-circuit with nothing written.
func (s *service) mutate(
	ctx context.Context,
	method string,
	id int64,
	fn func(tx *sql.Tx, o *Order) (*Event, error),
) (*Order, *Event, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", method),
		zap.Int64("order_id", id),
	)

	var (
		out *Order
		ev  *Event
	)
	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		o, err := NewRepository(tx).GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		ev, err = fn(tx, o)
		out = o
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			log.Error("order operation failed", zap.Error(err))
		} else {
			log.Info("order operation rejected", zap.Error(err))
		}
		return nil, nil, classify(err, "could not update order")
	}

	if ev == nil {
		log.Debug("order already at or past target", zap.Stringer("status", out.Status))
	}
	return out, ev, nil
}

// markFailedReservation records FAILED_RESERVATION after a reservation was
// rolled back for lack of stock. It only applies while the order is still
// NEW; failures are logged and never replace the caller's error. It must
// survive the caller's cancellation.
func (s *service) markFailedReservation(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)
	s.metrics.ReservationFailed()

	o, ev, err := s.mutate(ctx, "MarkFailedReservation", id, func(tx *sql.Tx, o *Order) (*Event, error) {
		if o.Status != StatusNew {
			return nil, nil
		}
		return s.engine.Transition(ctx, tx, o, StatusFailedReservation, actorFrom(ctx), logger.RequestIDFrom(ctx))
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to record failed reservation",
			zap.Int64("order_id", id),
			zap.Error(err),
		)
		return
	}
	s.afterCommit(ctx, o, ev)
}

// afterCommit runs only once the transaction is durable.
func (s *service) afterCommit(ctx context.Context, o *Order, ev *Event) {
	if ev == nil {
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, o.ID)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishStatusChanged(ctx, o, ev); err != nil {
			logger.FromCtx(ctx).Warn("status change not published",
				zap.Int64("order_id", o.ID),
				zap.Error(err),
			)
		}
	}
}

func actorFrom(ctx context.Context) Actor {
	id, ok := utils.IdentityFromContext(ctx)
	if !ok {
		return Actor{}
	}
	role := id.Role
	uid := id.UserID
	return Actor{UserID: &uid, Role: &role}
}

func classify(err error, detail string) error {
	var k apperr.Kinded
	if errors.As(err, &k) {
		return err
	}
	return apperr.Internal(detail, err)
}
