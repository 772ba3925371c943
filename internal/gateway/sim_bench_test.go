package gateway

import (
	"fmt"
	"testing"
	"time"

	"gridsim/internal/domain"

	"github.com/shopspring/decimal"
)

// BenchmarkSimGateway_TickPass measures one matching pass over a
// populated maker book with alternating touch prices.
func BenchmarkSimGateway_TickPass(b *testing.B) {
	gw := NewSimGateway()
	gw.SetMinTickInterval(0)

	// Resting buys far below the market so the pass scans without filling.
	for i := 0; i < 100; i++ {
		o := domain.NewOrder(fmt.Sprintf("m-%d", i), domain.SideBuy,
			decimal.NewFromInt(50), decimal.NewFromInt(1))
		if err := gw.SendOrder(o); err != nil {
			b.Fatalf("SendOrder failed: %v", err)
		}
	}

	ticks := []domain.Nbbo{
		{Time: time.Unix(0, 0), Bid: decimal.NewFromInt(99), BidSize: decimal.NewFromInt(5),
			Ask: decimal.NewFromInt(100), AskSize: decimal.NewFromInt(5)},
		{Time: time.Unix(0, 0), Bid: decimal.NewFromInt(99), BidSize: decimal.NewFromInt(5),
			Ask: decimal.NewFromInt(101), AskSize: decimal.NewFromInt(5)},
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		tk := ticks[i%2]
		tk.Time = time.Unix(int64(i), 0)
		gw.OnMarketDataTick(tk)
	}
}
