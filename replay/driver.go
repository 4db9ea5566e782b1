// Package replay drives an event.Store's sorted sequence through a
// matching.Engine and materialises the resulting tick and trade streams.
package replay

import (
	"github.com/mkhoshkam/powerreplay/book"
	"github.com/mkhoshkam/powerreplay/event"
	"github.com/mkhoshkam/powerreplay/internal/replayerr"
	"github.com/mkhoshkam/powerreplay/matching"
)

// TickTable is the materialised tick stream produced by a Run.
type TickTable []matching.Tick

// TradeTable is the materialised trade stream produced by a Run.
type TradeTable []book.Trade

// Driver feeds an event.Store's sequence into a matching.Engine and
// accumulates the two output streams. A Driver may be run at most once.
type Driver struct {
	store  *event.Store
	engine *matching.Engine

	ran    bool
	ticks  TickTable
	trades TradeTable
}

// NewDriver returns a Driver over a loaded Store.
func NewDriver(store *event.Store) *Driver {
	return &Driver{
		store:  store,
		engine: matching.NewEngine(),
	}
}

// Run drives the full event sequence through the matching engine exactly
// once. Calling Run a second time returns replayerr.ErrAlreadyRun without
// repeating any work.
func (d *Driver) Run() (TickTable, TradeTable, error) {
	if d.ran {
		return nil, nil, replayerr.ErrAlreadyRun
	}
	d.ran = true

	for _, ev := range d.store.Events() {
		trades, tick := d.engine.Dispatch(ev)
		if len(trades) > 0 {
			d.trades = append(d.trades, trades...)
		}
		if tick != nil {
			d.ticks = append(d.ticks, *tick)
		}
	}

	return d.ticks, d.trades, nil
}

// TickerDF returns the materialised tick stream. Valid only after Run.
func (d *Driver) TickerDF() TickTable {
	return d.ticks
}

// TradesDF returns the materialised trade stream. Valid only after Run.
func (d *Driver) TradesDF() TradeTable {
	return d.trades
}

// Store exposes the underlying Event Store's metadata accessors.
func (d *Driver) Store() *event.Store {
	return d.store
}

// Engine exposes the underlying matching engine, e.g. for tests asserting
// book invariants after a Run.
func (d *Driver) Engine() *matching.Engine {
	return d.engine
}
