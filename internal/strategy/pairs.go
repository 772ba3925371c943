package strategy

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gridsim/internal/domain"
	"gridsim/internal/infra"

	"github.com/shopspring/decimal"
)

// Config holds the tunables of the pairs trader.
type Config struct {
	// Width is the half-spread: legs are placed at midpoint +/- Width.
	Width decimal.Decimal
	// OrderQty is the quantity of each leg.
	OrderQty decimal.Decimal
	// ProcessInterval gates how often a tick triggers a trading cycle.
	ProcessInterval time.Duration
	// MaxPairDuration expires a Working pair that has aged out.
	// Zero disables expiry.
	MaxPairDuration time.Duration
}

// DefaultConfig returns the trader defaults: width 1, leg qty 0.1,
// one cycle per second, no expiry.
func DefaultConfig() Config {
	return Config{
		Width:           decimal.NewFromInt(1),
		OrderQty:        decimal.RequireFromString("0.1"),
		ProcessInterval: 1000 * time.Millisecond,
	}
}

// PairsTrader opens symmetric buy/sell pairs around the midpoint of the
// current tick. It maintains at most one Working pair at a time and is
// the sole writer of pair status. Time is taken from tick timestamps,
// never from the wall clock, so replayed history behaves identically.
type PairsTrader struct {
	mu    sync.Mutex
	cfg   Config
	gw    domain.Gateway
	store domain.TradeStore // optional

	pairs     []*domain.OrderPair
	pairSeq   int
	lastTick  domain.Nbbo
	hasTick   bool
	lastCycle time.Time
}

// NewPairsTrader wires the trader to a gateway and registers itself as
// the gateway's order-update handler.
func NewPairsTrader(cfg Config, gw domain.Gateway, store domain.TradeStore) *PairsTrader {
	if cfg.ProcessInterval <= 0 {
		cfg.ProcessInterval = 1000 * time.Millisecond
	}
	t := &PairsTrader{cfg: cfg, gw: gw, store: store}
	gw.SetOrderUpdateHandler(t.OnOrderUpdated)
	return t
}

// OnTickReceived records the tick and, once per process interval, runs a
// trading cycle: expire the aged Working pair, then open a new pair when
// none is Working.
func (t *PairsTrader) OnTickReceived(nbbo domain.Nbbo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastTick = nbbo
	t.hasTick = true

	if !t.lastCycle.IsZero() && nbbo.Time.Sub(t.lastCycle) < t.cfg.ProcessInterval {
		return
	}
	t.lastCycle = nbbo.Time

	t.expirePairs(nbbo.Time)

	if t.shouldCreatePair() {
		t.createPair(nbbo)
	}
}

// shouldCreatePair implements the single-pair grid rule: open when no
// pair exists yet, or when no pair is currently Working.
// Callers must hold t.mu.
func (t *PairsTrader) shouldCreatePair() bool {
	if !t.hasTick {
		return false
	}
	if len(t.pairs) == 0 {
		return true
	}
	return t.workingCount() == 0
}

func (t *PairsTrader) workingCount() int {
	n := 0
	for _, p := range t.pairs {
		if p.Status == domain.PairWorking {
			n++
		}
	}
	return n
}

// createPair builds and submits both legs around the tick midpoint.
// If the second leg fails to submit, the first leg is cancelled and the
// pair is closed as NothingDone rather than left one-legged.
// Callers must hold t.mu.
func (t *PairsTrader) createPair(nbbo domain.Nbbo) {
	t.pairSeq++
	pairID := fmt.Sprintf("P-%d", t.pairSeq)
	mid := nbbo.Midpoint()

	buy := domain.NewOrder(pairID+"-B", domain.SideBuy, mid.Sub(t.cfg.Width), t.cfg.OrderQty)
	sell := domain.NewOrder(pairID+"-S", domain.SideSell, mid.Add(t.cfg.Width), t.cfg.OrderQty)
	pair := domain.NewOrderPair(pairID, nbbo.Time, mid, t.cfg.Width, buy, sell)
	t.pairs = append(t.pairs, pair)

	if err := t.gw.SendOrder(buy); err != nil {
		infra.GlobalMetrics.RecordError()
		slog.Error("buy leg rejected, pair abandoned",
			slog.String("pair", pairID), slog.Any("error", err))
		t.closePair(pair, domain.PairNothingDone)
		return
	}

	err := t.gw.SendOrder(sell)
	if err != nil && domain.IsRetriable(err) {
		slog.Warn("sell leg submit failed, retrying once",
			slog.String("pair", pairID), slog.Any("error", err))
		err = t.gw.SendOrder(sell)
	}
	if err != nil {
		infra.GlobalMetrics.RecordError()
		slog.Error("sell leg rejected, unwinding buy leg",
			slog.String("pair", pairID), slog.Any("error", err))
		if cerr := t.gw.CancelOrder(buy); cerr != nil {
			slog.Warn("failed to cancel orphan buy leg",
				slog.String("order", buy.ID), slog.Any("error", cerr))
		}
		t.closePair(pair, domain.PairNothingDone)
		return
	}

	infra.GlobalMetrics.RecordPairOpened()
	slog.Info("pair opened",
		slog.String("pair", pairID),
		slog.String("open_price", mid.String()),
		slog.String("buy_px", buy.LimitPrice.String()),
		slog.String("sell_px", sell.LimitPrice.String()))
}

// expirePairs moves Working pairs past MaxPairDuration to NothingDone
// and cancels their resting legs. Callers must hold t.mu.
func (t *PairsTrader) expirePairs(now time.Time) {
	for _, p := range t.pairs {
		if p.Status != domain.PairWorking || !p.ExpiredAt(now, t.cfg.MaxPairDuration) {
			continue
		}

		if err := t.gw.CancelOrder(p.Buy); err != nil {
			slog.Warn("cancel on expiry failed",
				slog.String("order", p.Buy.ID), slog.Any("error", err))
		}
		if err := t.gw.CancelOrder(p.Sell); err != nil {
			slog.Warn("cancel on expiry failed",
				slog.String("order", p.Sell.ID), slog.Any("error", err))
		}

		infra.GlobalMetrics.RecordPairExpired()
		slog.Info("pair expired", slog.String("pair", p.ID))
		t.closePair(p, domain.PairNothingDone)
	}
}

// closePair finalizes a pair's status and persists it when a store is
// configured. Callers must hold t.mu.
func (t *PairsTrader) closePair(p *domain.OrderPair, status domain.PairStatus) {
	p.Status = status
	if t.store == nil {
		return
	}
	if err := t.store.SavePair(p); err != nil {
		slog.Warn("failed to persist pair",
			slog.String("pair", p.ID), slog.Any("error", err))
	}
}

// OnOrderUpdated is the gateway fill callback. It records the fill and
// completes the owning pair once both legs are fully filled.
func (t *PairsTrader) OnOrderUpdated(order *domain.Order, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveFill(order, at); err != nil {
			slog.Warn("failed to persist fill",
				slog.String("order", order.ID), slog.Any("error", err))
		}
	}

	for _, p := range t.pairs {
		if !p.Owns(order.ID) || p.Status != domain.PairWorking {
			continue
		}
		if p.IsComplete() {
			infra.GlobalMetrics.RecordPairCompleted()
			slog.Info("pair completed", slog.String("pair", p.ID))
			t.closePair(p, domain.PairCompleted)
		}
		return
	}
}

// Pairs returns a snapshot of the pair collection in creation order.
func (t *PairsTrader) Pairs() []*domain.OrderPair {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*domain.OrderPair, len(t.pairs))
	copy(out, t.pairs)
	return out
}

// WorkingPairs returns how many pairs are currently Working.
func (t *PairsTrader) WorkingPairs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workingCount()
}
