package domain

import (
	"context"
	"time"
)

// OrderUpdateHandler receives fill/acknowledgement callbacks from a gateway.
type OrderUpdateHandler func(order *Order, at time.Time)

// Gateway is the execution venue contract. Two implementations exist: the
// simulated matching gateway and a live-exchange adapter. Strategies are
// written against this interface only and must not assume which is in effect.
type Gateway interface {
	// SendOrder books the order. Acceptance is synchronous for the
	// simulator; a live adapter may acknowledge later via the update
	// handler (VenueHandleID arrives with the acknowledgement).
	SendOrder(order *Order) error

	// CancelOrder removes a resting order. Cancelling an unknown or
	// already-filled order is a no-op.
	CancelOrder(order *Order) error

	// OnMarketDataTick feeds one NBBO tick into the venue.
	OnMarketDataTick(nbbo Nbbo)

	// SetOrderUpdateHandler registers the fill/update callback.
	SetOrderUpdateHandler(h OrderUpdateHandler)
}

// TickSource produces a time-ordered stream of NBBO ticks into a sink.
type TickSource interface {
	Run(ctx context.Context, sink chan<- Nbbo) error
}

// TradeStore persists fills and finished pairs for later analysis.
type TradeStore interface {
	SaveFill(order *Order, at time.Time) error
	SavePair(pair *OrderPair) error
}
