package domain

import (
	"time"
)

// FillRecord snapshots an order's fill state at the time of an update
// event: cumulative quantity and volume-weighted average price.
type FillRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   string    `gorm:"index" json:"order_id"`
	Side      string    `json:"side"`
	CumQty    string    `json:"cum_qty"`
	AvgPx     string    `json:"avg_px"`
	FilledAt  time.Time `json:"filled_at"`
	CreatedAt time.Time `json:"created_at"`
}

// PairRecord is a finished pair (Completed or NothingDone), as persisted.
// Prices and quantities are stored as decimal strings to avoid float drift.
type PairRecord struct {
	PairID     string    `gorm:"primaryKey" json:"pair_id"`
	Status     string    `gorm:"index" json:"status"`
	OpenPrice  string    `json:"open_price"`
	Width      string    `json:"width"`
	BuyPx      string    `json:"buy_px"`
	BuyQty     string    `json:"buy_qty"`
	BuyCumQty  string    `json:"buy_cum_qty"`
	SellPx     string    `json:"sell_px"`
	SellQty    string    `json:"sell_qty"`
	SellCumQty string    `json:"sell_cum_qty"`
	OpenedAt   time.Time `json:"opened_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
