// Package book implements a per-product price-time-priority limit order
// book: insert, cancel, and crossing match against resting liquidity.
//
// A Book is owned by exactly one matching.Engine and corresponds to
// exactly one delivery product. It performs no locking of its own — the
// replay is single-threaded and sequential (spec §5); a caller exposing a
// concurrent/live mode must guard each Book with its own single-writer
// discipline.
package book

import (
	"container/list"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/event"
)

// RestingOrder is a live order resting on one side of a Book. It is
// mutated in place only by partial execution (decrementing
// RemainingQuantity) or by a quantity-decreasing Modify at the same price;
// any other change removes and re-inserts it, losing priority.
type RestingOrder struct {
	InitialID         int64
	Side              event.Side
	Price             decimal.Decimal
	RemainingQuantity int64
	EnqueueTime       time.Time
}

// Trade is an append-only record of a single execution against a resting
// order. Price is always the resting order's price: the price-taker pays
// the posted price.
type Trade struct {
	Time          time.Time
	ProductKey    time.Time
	Price         decimal.Decimal
	Quantity      int64
	AggressorSide event.Side
}

// priceLevel is a FIFO queue of resting orders at a single price.
type priceLevel struct {
	price  decimal.Decimal
	orders *list.List // of *RestingOrder
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

// orderLocation lets Cancel/MutateQuantity find a resting order in O(1)
// without callers aliasing into the book directly.
type orderLocation struct {
	side  event.Side
	level *priceLevel
	elem  *list.Element // Value is *RestingOrder
}
