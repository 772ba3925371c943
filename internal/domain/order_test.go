package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrder_ApplyFill(t *testing.T) {
	t.Run("Partial Fill", func(t *testing.T) {
		o := NewOrder("o-1", SideBuy, decimal.NewFromInt(105), decimal.RequireFromString("0.1"))

		applied := o.ApplyFill(decimal.RequireFromString("0.05"), decimal.NewFromInt(105))

		if !applied.Equal(decimal.RequireFromString("0.05")) {
			t.Errorf("Expected applied 0.05, got %s", applied)
		}
		if !o.CumQty.Equal(decimal.RequireFromString("0.05")) {
			t.Errorf("Expected CumQty 0.05, got %s", o.CumQty)
		}
		if !o.AvgPx.Equal(decimal.NewFromInt(105)) {
			t.Errorf("Expected AvgPx 105, got %s", o.AvgPx)
		}
		if o.IsFilled() {
			t.Error("Order should not be fully filled")
		}
		if !o.LeavesQty().Equal(decimal.RequireFromString("0.05")) {
			t.Errorf("Expected leaves 0.05, got %s", o.LeavesQty())
		}
	})

	t.Run("Never Overshoots", func(t *testing.T) {
		o := NewOrder("o-2", SideSell, decimal.NewFromInt(99), decimal.RequireFromString("0.1"))

		applied := o.ApplyFill(decimal.NewFromInt(5), decimal.NewFromInt(99))

		if !applied.Equal(decimal.RequireFromString("0.1")) {
			t.Errorf("Expected applied capped at 0.1, got %s", applied)
		}
		if !o.CumQty.Equal(o.OrderQty) {
			t.Errorf("Expected CumQty == OrderQty, got %s", o.CumQty)
		}
		if !o.IsFilled() {
			t.Error("Order should be fully filled")
		}
	})

	t.Run("Volume Weighted Average Price", func(t *testing.T) {
		o := NewOrder("o-3", SideBuy, decimal.NewFromInt(100), decimal.NewFromInt(10))

		o.ApplyFill(decimal.NewFromInt(4), decimal.NewFromInt(100))
		o.ApplyFill(decimal.NewFromInt(6), decimal.NewFromInt(90))

		// (4*100 + 6*90) / 10 = 94
		if !o.AvgPx.Equal(decimal.NewFromInt(94)) {
			t.Errorf("Expected AvgPx 94, got %s", o.AvgPx)
		}
		if !o.Notional().Equal(decimal.NewFromInt(940)) {
			t.Errorf("Expected notional 940, got %s", o.Notional())
		}
	})

	t.Run("Ignores Non-Positive Quantity", func(t *testing.T) {
		o := NewOrder("o-4", SideBuy, decimal.NewFromInt(100), decimal.NewFromInt(1))

		if applied := o.ApplyFill(decimal.Zero, decimal.NewFromInt(100)); !applied.IsZero() {
			t.Errorf("Expected zero applied, got %s", applied)
		}
		if applied := o.ApplyFill(decimal.NewFromInt(-1), decimal.NewFromInt(100)); !applied.IsZero() {
			t.Errorf("Expected zero applied for negative qty, got %s", applied)
		}
		if !o.CumQty.IsZero() {
			t.Errorf("CumQty should be untouched, got %s", o.CumQty)
		}
	})
}

func TestSide_String(t *testing.T) {
	if SideBuy.String() != "BUY" || SideSell.String() != "SELL" {
		t.Errorf("Unexpected side strings: %s, %s", SideBuy, SideSell)
	}
	if Side(0).String() != "UNKNOWN" {
		t.Errorf("Zero side should be UNKNOWN, got %s", Side(0))
	}
}
