package order

import (
	"fmt"

	"warehouse-be/internal/apperr"
)

var (
	ErrOrderNotFound   = apperr.NotFound("order not found")
	ErrConcurrentWrite = apperr.Conflict("order was modified concurrently")
)

// TransitionError is returned for a status change the state machine does
// not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Kind() apperr.Kind { return apperr.KindConflict }
