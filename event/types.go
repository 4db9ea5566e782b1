// Package event loads and types the raw order-event log and answers
// point-in-time snapshot queries over it. It is the Event Store of the
// replay pipeline: everything downstream (book, matching, replay) consumes
// its sorted, typed Event sequence.
package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Action classifies what an event does to the resting order identified
// by InitialId. Any ActionCode other than A/M/D is routed to Other, which
// the matching engine treats as "remove the prior resting order, if any,
// and otherwise ignore" (spec: the removal-then-ignore path).
type Action string

const (
	Add    Action = "A"
	Modify Action = "M"
	Delete Action = "D"
	Other  Action = "O"
)

// parseAction maps a raw ActionCode to an Action, routing anything
// unrecognised to Other rather than failing the load.
func parseAction(code string) Action {
	switch Action(code) {
	case Add, Modify, Delete:
		return Action(code)
	default:
		return Other
	}
}

// Event is an immutable record from the order-event log. (TransactionTime,
// RevisionNo) is the total replay order.
type Event struct {
	InitialID       int64
	RevisionNo      int64
	Action          Action
	Side            Side
	Price           decimal.Decimal
	Quantity        int64
	DeliveryStart   time.Time
	DeliveryEnd     time.Time
	TransactionTime time.Time
	CreationTime    time.Time
	ValidityTime    time.Time

	// ExecutionRestriction and BlockVolume are passthrough attributes the
	// matching core never interprets (spec Open Question, §9). ProductClass
	// is likewise passthrough; it is kept on Event only and is not part of
	// the Order projection that Snapshot returns.
	ExecutionRestriction string
	BlockVolume          string
	ProductClass         string
}

// ProductKey identifies the delivery product an event belongs to. The
// product identity is the delivery window's start instant.
func (e Event) ProductKey() time.Time {
	return e.DeliveryStart
}

// Order is the resting-order projection of an event, as returned by
// Store.Snapshot. It has no relation to book.RestingOrder, which is the
// live matching-engine representation; Order is a read-only convenience
// shape for callers outside the matching path.
type Order struct {
	InitialID       int64
	Side            Side
	Price           decimal.Decimal
	Quantity        int64
	DeliveryStart   time.Time
	DeliveryEnd     time.Time
	Action          Action
	TransactionTime time.Time
}
