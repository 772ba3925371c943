package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"gridsim/internal/domain"
	"gridsim/internal/gateway"
	"gridsim/internal/strategy"

	"github.com/shopspring/decimal"
)

// recordingHandler notes whether the gateway saw each tick first.
type recordingHandler struct {
	gw    *countingGateway
	order []string
}

func (h *recordingHandler) OnTickReceived(nbbo domain.Nbbo) {
	h.order = append(h.order, "strategy")
}

type countingGateway struct {
	handler *recordingHandler
	ticks   atomic.Int64
}

func (g *countingGateway) SendOrder(order *domain.Order) error   { return nil }
func (g *countingGateway) CancelOrder(order *domain.Order) error { return nil }
func (g *countingGateway) OnMarketDataTick(nbbo domain.Nbbo) {
	g.ticks.Add(1)
	g.handler.order = append(g.handler.order, "gateway")
}
func (g *countingGateway) SetOrderUpdateHandler(h domain.OrderUpdateHandler) {}

func TestDispatcher_GatewayBeforeStrategy(t *testing.T) {
	gw := &countingGateway{}
	handler := &recordingHandler{gw: gw}
	gw.handler = handler

	d := NewDispatcher(4, gw, handler)

	tick := domain.Nbbo{Time: time.Unix(1, 0),
		Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(102)}
	d.processTick(tick)
	d.processTick(tick)

	want := []string{"gateway", "strategy", "gateway", "strategy"}
	if len(handler.order) != len(want) {
		t.Fatalf("Expected %d deliveries, got %d", len(want), len(handler.order))
	}
	for i, w := range want {
		if handler.order[i] != w {
			t.Fatalf("Delivery %d = %s, want %s (order: %v)", i, handler.order[i], w, handler.order)
		}
	}
}

func TestDispatcher_Hooks(t *testing.T) {
	gw := &countingGateway{}
	handler := &recordingHandler{gw: gw}
	gw.handler = handler
	d := NewDispatcher(4, gw, handler)

	var hooked []domain.Nbbo
	d.AddHook(func(nbbo domain.Nbbo) {
		hooked = append(hooked, nbbo)
	})

	tick := domain.Nbbo{Time: time.Unix(1, 0),
		Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(102)}
	d.processTick(tick)

	if len(hooked) != 1 {
		t.Fatalf("Expected 1 hooked tick, got %d", len(hooked))
	}
	if !hooked[0].Bid.Equal(tick.Bid) {
		t.Errorf("Hook saw wrong tick: %v", hooked[0])
	}
}

func TestDispatcher_RunDrainsInbox(t *testing.T) {
	gw := &countingGateway{}
	handler := &recordingHandler{gw: gw}
	gw.handler = handler
	d := NewDispatcher(16, gw, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := int64(0); i < 5; i++ {
		d.Inbox() <- domain.Nbbo{Time: time.Unix(i, 0),
			Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(102)}
	}

	deadline := time.After(2 * time.Second)
	for gw.ticks.Load() < 5 {
		select {
		case <-deadline:
			t.Fatalf("Timed out; gateway saw %d ticks", gw.ticks.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestDispatcher_EndToEnd runs the full loop: replayed ticks drive the
// simulated gateway and the pairs trader until a pair completes.
func TestDispatcher_EndToEnd(t *testing.T) {
	gw := gateway.NewSimGateway()
	trader := strategy.NewPairsTrader(strategy.DefaultConfig(), gw, nil)
	d := NewDispatcher(64, gw, trader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	nbbo := func(sec int64, bid, ask string) domain.Nbbo {
		return domain.Nbbo{
			Time:    time.Unix(sec, 0),
			Bid:     decimal.RequireFromString(bid),
			BidSize: decimal.NewFromInt(1),
			Ask:     decimal.RequireFromString(ask),
			AskSize: decimal.NewFromInt(1),
		}
	}

	// Tick 1: strategy opens buy@100 / sell@102 around midpoint 101.
	// Tick 2: market drops through the buy leg (ask 100 <= limit 100).
	// Tick 3: market rallies through the sell leg (bid 102 >= limit 102).
	ticks := []domain.Nbbo{
		nbbo(1, "100", "102"),
		nbbo(3, "98", "100"),
		nbbo(5, "102", "104"),
	}
	for _, tk := range ticks {
		d.Inbox() <- tk
	}

	deadline := time.After(2 * time.Second)
	for {
		if len(trader.Pairs()) > 0 && trader.WorkingPairs() == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Pair never completed; pairs=%d", len(trader.Pairs()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	pair := trader.Pairs()[0]
	if pair.Status != domain.PairCompleted {
		t.Fatalf("Expected COMPLETED, got %s", pair.Status)
	}
	if !pair.Buy.AvgPx.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Buy leg filled at %s, want 100", pair.Buy.AvgPx)
	}
	if !pair.Sell.AvgPx.Equal(decimal.NewFromInt(102)) {
		t.Errorf("Sell leg filled at %s, want 102", pair.Sell.AvgPx)
	}
	if gw.Booked(pair.Buy.ID) || gw.Booked(pair.Sell.ID) {
		t.Error("Completed legs must leave the books")
	}
}
