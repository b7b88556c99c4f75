package order

import (
	"database/sql/driver"
	"fmt"
)

// Status is the fulfillment state of an order. The zero value is not a
// valid status.
type Status int

const (
	StatusUnknown Status = iota
	StatusNew
	StatusReserved
	StatusPicking
	StatusPicked
	StatusShipped
	StatusCancelled
	StatusFailedReservation
)

var statusNames = map[Status]string{
	StatusNew:               "NEW",
	StatusReserved:          "RESERVED",
	StatusPicking:           "PICKING",
	StatusPicked:            "PICKED",
	StatusShipped:           "SHIPPED",
	StatusCancelled:         "CANCELLED",
	StatusFailedReservation: "FAILED_RESERVATION",
}

var statusByName = func() map[string]Status {
	m := make(map[string]Status, len(statusNames))
	for s, name := range statusNames {
		m[name] = s
	}
	return m
}()

// transitions lists the allowed targets for each status. Terminal statuses
// have none.
var transitions = map[Status][]Status{
	StatusNew:               {StatusReserved, StatusCancelled, StatusFailedReservation},
	StatusReserved:          {StatusPicking, StatusCancelled},
	StatusPicking:           {StatusPicked, StatusCancelled},
	StatusPicked:            {StatusShipped, StatusCancelled},
	StatusFailedReservation: {StatusReserved, StatusCancelled},
	StatusShipped:           {},
	StatusCancelled:         {},
}

// forward ranks the happy path so "already at or past" checks are a
// comparison. Statuses off the path rank zero.
var forward = map[Status]int{
	StatusNew:      1,
	StatusReserved: 2,
	StatusPicking:  3,
	StatusPicked:   4,
	StatusShipped:  5,
}

// ParseStatus maps a persisted name to its Status. Unknown names are an
// error and are never defaulted.
func ParseStatus(s string) (Status, error) {
	st, ok := statusByName[s]
	if !ok {
		return StatusUnknown, fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusShipped || s == StatusCancelled
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// AtOrPast reports whether s is target or a later step on the
// NEW → RESERVED → PICKING → PICKED → SHIPPED path.
func (s Status) AtOrPast(target Status) bool {
	rs, rt := forward[s], forward[target]
	return rs > 0 && rt > 0 && rs >= rt
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return s.String(), nil
}

func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into order status", src)
	}
}
