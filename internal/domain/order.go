package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

// String returns the string representation of Side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Order is a single limit order. Fill fields (CumQty, AvgPx) are written
// only by the gateway that accepted the order; everyone else reads.
type Order struct {
	ID            string
	VenueHandleID string // assigned by the venue on acknowledgement, empty until then
	CreateTime    time.Time
	Side          Side
	LimitPrice    decimal.Decimal
	OrderQty      decimal.Decimal
	CumQty        decimal.Decimal
	AvgPx         decimal.Decimal
}

// NewOrder builds an order with the create time stamped now.
func NewOrder(id string, side Side, limitPrice, qty decimal.Decimal) *Order {
	return &Order{
		ID:         id,
		CreateTime: time.Now(),
		Side:       side,
		LimitPrice: limitPrice,
		OrderQty:   qty,
	}
}

// LeavesQty returns the unfilled remainder.
func (o *Order) LeavesQty() decimal.Decimal {
	return o.OrderQty.Sub(o.CumQty)
}

// Notional returns CumQty * AvgPx.
func (o *Order) Notional() decimal.Decimal {
	return o.CumQty.Mul(o.AvgPx)
}

// IsFilled reports whether the order is fully filled.
func (o *Order) IsFilled() bool {
	return o.CumQty.GreaterThanOrEqual(o.OrderQty)
}

// ApplyFill records a partial or complete fill at px. The fill quantity is
// capped at LeavesQty so cumulative quantity never overshoots. AvgPx is the
// volume-weighted average across all fills applied so far.
// Returns the quantity actually applied.
func (o *Order) ApplyFill(qty, px decimal.Decimal) decimal.Decimal {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if leaves := o.LeavesQty(); qty.GreaterThan(leaves) {
		qty = leaves
	}
	if qty.IsZero() {
		return decimal.Zero
	}

	newCum := o.CumQty.Add(qty)
	o.AvgPx = o.AvgPx.Mul(o.CumQty).Add(px.Mul(qty)).Div(newCum)
	o.CumQty = newCum
	return qty
}
