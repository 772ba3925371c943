package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gridsim/internal/domain"
	"gridsim/internal/infra"
)

// TickHandler consumes ticks after the gateway has matched against them.
type TickHandler interface {
	OnTickReceived(nbbo domain.Nbbo)
}

// TickHook observes every dispatched tick (recorder, stats).
type TickHook func(nbbo domain.Nbbo)

// Dispatcher is the single-threaded tick loop. Every tick is delivered
// to the gateway first and to the strategy second, so an order the
// strategy opens in reaction to a tick is matched starting from the next
// tick. This rules out same-tick self-fills against a stale book.
type Dispatcher struct {
	inbox   chan domain.Nbbo
	gw      domain.Gateway
	handler TickHandler
	hooks   []TickHook
}

// NewDispatcher creates a dispatcher with a buffered tick inbox.
func NewDispatcher(inboxSize int, gw domain.Gateway, handler TickHandler) *Dispatcher {
	return &Dispatcher{
		inbox:   make(chan domain.Nbbo, inboxSize),
		gw:      gw,
		handler: handler,
	}
}

// AddHook registers a per-tick observer. Not safe after Run has started.
func (d *Dispatcher) AddHook(h TickHook) {
	d.hooks = append(d.hooks, h)
}

// Inbox returns the tick channel. Feed sources send ticks here.
func (d *Dispatcher) Inbox() chan<- domain.Nbbo {
	return d.inbox
}

// Run starts the main tick loop. This MUST be run in a single goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("dispatcher started")

	defer func() {
		if r := recover(); r != nil {
			snap := infra.GlobalMetrics.Snapshot()
			slog.Error("dispatcher panic",
				slog.Any("panic", r),
				slog.Uint64("ticks_processed", snap.TicksProcessed),
				slog.Uint64("fills", snap.Fills))
			panic(fmt.Sprintf("dispatcher halted: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatcher stopping")
			return
		case nbbo := <-d.inbox:
			d.processTick(nbbo)
		}
	}
}

func (d *Dispatcher) processTick(nbbo domain.Nbbo) {
	start := time.Now()

	// Gateway matches against its current books before the strategy can
	// react; see the ordering note on Dispatcher.
	d.gw.OnMarketDataTick(nbbo)
	if d.handler != nil {
		d.handler.OnTickReceived(nbbo)
	}
	for _, h := range d.hooks {
		h(nbbo)
	}

	infra.GlobalMetrics.RecordTick(time.Since(start).Nanoseconds())
}
