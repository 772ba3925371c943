package gateway

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gridsim/internal/domain"
	"gridsim/internal/infra"

	"github.com/shopspring/decimal"
)

// DefaultMinTickInterval bounds matching work to one pass per meaningful
// price change per interval.
const DefaultMinTickInterval = 1000 * time.Millisecond

// SimGateway simulates an execution venue. Orders with a positive limit
// price rest in the maker book and fill when the touch crosses their
// price; orders with a non-positive (marker) price are takers and fill
// immediately against the touch on the next matching pass.
//
// Fill fields of booked orders are written only inside the tick pass.
// CancelOrder is safe to call concurrently with an in-flight pass: the
// pass iterates over a key snapshot, and a cancel removes the order from
// future matching without undoing fills already applied.
type SimGateway struct {
	mu     sync.Mutex
	makers map[string]*domain.Order
	takers map[string]*domain.Order

	prev        domain.Nbbo
	hasPrev     bool
	minInterval time.Duration

	onUpdate domain.OrderUpdateHandler
}

// NewSimGateway creates a simulated gateway with the default throttle.
func NewSimGateway() *SimGateway {
	return &SimGateway{
		makers:      make(map[string]*domain.Order),
		takers:      make(map[string]*domain.Order),
		minInterval: DefaultMinTickInterval,
	}
}

// SetMinTickInterval overrides the matching throttle. Zero disables it.
func (g *SimGateway) SetMinTickInterval(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.minInterval = d
}

// SetOrderUpdateHandler registers the fill/update callback.
func (g *SimGateway) SetOrderUpdateHandler(h domain.OrderUpdateHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUpdate = h
}

// SendOrder books the order as maker or taker keyed by its ID.
// It never fills immediately; fills happen on subsequent ticks.
func (g *SimGateway) SendOrder(order *domain.Order) error {
	if order == nil || order.ID == "" {
		return &domain.InvalidOrderError{Reason: "missing order id"}
	}
	if order.OrderQty.LessThanOrEqual(decimal.Zero) {
		return &domain.InvalidOrderError{OrderID: order.ID, Reason: "non-positive quantity"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.makers[order.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.ID)
	}
	if _, ok := g.takers[order.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.ID)
	}

	// Simulated venues acknowledge synchronously.
	order.VenueHandleID = "sim-" + order.ID

	if order.LimitPrice.LessThanOrEqual(decimal.Zero) {
		g.takers[order.ID] = order
	} else {
		g.makers[order.ID] = order
	}
	return nil
}

// CancelOrder removes the order from the books. Unknown IDs are a no-op.
func (g *SimGateway) CancelOrder(order *domain.Order) error {
	if order == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.makers, order.ID)
	delete(g.takers, order.ID)
	return nil
}

// fillEvent is a pending callback collected during a matching pass.
// Callbacks run after the book lock is released so handlers may call
// back into the gateway.
type fillEvent struct {
	order *domain.Order
	at    time.Time
}

// OnMarketDataTick runs one matching pass against the tick: stale guard,
// throttle, maker fills, taker fills, then a sweep of filled orders.
// Orders submitted during the pass are considered from the next tick on.
func (g *SimGateway) OnMarketDataTick(nbbo domain.Nbbo) {
	g.mu.Lock()

	if g.hasPrev && nbbo.Time.Before(g.prev.Time) {
		g.mu.Unlock()
		infra.GlobalMetrics.RecordStaleTick()
		slog.Warn("dropping out-of-order tick",
			slog.Time("tick_time", nbbo.Time),
			slog.Time("prev_time", g.prev.Time))
		return
	}

	if g.hasPrev && (nbbo.Time.Sub(g.prev.Time) < g.minInterval || nbbo.SameTouch(g.prev)) {
		g.mu.Unlock()
		infra.GlobalMetrics.RecordThrottledTick()
		return
	}

	var events []fillEvent
	events = g.matchMakers(nbbo, events)
	events = g.matchTakers(nbbo, events)
	g.sweepFilled()

	g.prev = nbbo
	g.hasPrev = true
	handler := g.onUpdate
	g.mu.Unlock()

	if handler != nil {
		for _, ev := range events {
			handler(ev.order, ev.at)
		}
	}
}

// matchMakers fills resting orders whose limit crosses the current touch:
// a Buy when the ask has come down to its limit, a Sell when the bid has
// come up to it. Maker fills execute at the order's own limit price.
func (g *SimGateway) matchMakers(nbbo domain.Nbbo, events []fillEvent) []fillEvent {
	for _, id := range sortedIDs(g.makers) {
		order, ok := g.makers[id]
		if !ok {
			continue // cancelled mid-pass
		}

		var available decimal.Decimal
		switch order.Side {
		case domain.SideBuy:
			if nbbo.Ask.GreaterThan(order.LimitPrice) {
				continue
			}
			available = nbbo.AskSize
		case domain.SideSell:
			if nbbo.Bid.LessThan(order.LimitPrice) {
				continue
			}
			available = nbbo.BidSize
		default:
			continue
		}

		applied := order.ApplyFill(available, order.LimitPrice)
		if applied.IsZero() {
			continue
		}
		infra.GlobalMetrics.RecordFill()
		events = append(events, fillEvent{order: order, at: nbbo.Time})
	}
	return events
}

// matchTakers fills every booked taker against the touch for its side:
// Buy at the ask, Sell at the bid. An update event is emitted even when
// the available size only allows a partial fill.
func (g *SimGateway) matchTakers(nbbo domain.Nbbo, events []fillEvent) []fillEvent {
	for _, id := range sortedIDs(g.takers) {
		order, ok := g.takers[id]
		if !ok {
			continue
		}

		var px, available decimal.Decimal
		switch order.Side {
		case domain.SideBuy:
			px, available = nbbo.Ask, nbbo.AskSize
		case domain.SideSell:
			px, available = nbbo.Bid, nbbo.BidSize
		default:
			continue
		}

		if applied := order.ApplyFill(available, px); !applied.IsZero() {
			infra.GlobalMetrics.RecordFill()
		}
		events = append(events, fillEvent{order: order, at: nbbo.Time})
	}
	return events
}

func (g *SimGateway) sweepFilled() {
	for id, order := range g.makers {
		if order.IsFilled() {
			delete(g.makers, id)
		}
	}
	for id, order := range g.takers {
		if order.IsFilled() {
			delete(g.takers, id)
		}
	}
}

// OpenOrders returns a snapshot of all booked orders (external read).
func (g *SimGateway) OpenOrders() []*domain.Order {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*domain.Order, 0, len(g.makers)+len(g.takers))
	for _, id := range sortedIDs(g.makers) {
		out = append(out, g.makers[id])
	}
	for _, id := range sortedIDs(g.takers) {
		out = append(out, g.takers[id])
	}
	return out
}

// Booked reports whether the order ID is present in either book.
func (g *SimGateway) Booked(orderID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, maker := g.makers[orderID]
	_, taker := g.takers[orderID]
	return maker || taker
}

func sortedIDs(book map[string]*domain.Order) []string {
	ids := make([]string, 0, len(book))
	for id := range book {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var _ domain.Gateway = (*SimGateway)(nil)
