package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PairStatus is the lifecycle state of an OrderPair.
type PairStatus int

const (
	PairWorking PairStatus = iota + 1
	PairCompleted
	PairNothingDone
)

// String returns the string representation of PairStatus.
func (s PairStatus) String() string {
	switch s {
	case PairWorking:
		return "WORKING"
	case PairCompleted:
		return "COMPLETED"
	case PairNothingDone:
		return "NOTHING_DONE"
	default:
		return "UNKNOWN"
	}
}

// OrderPair is a linked buy+sell combination opened around a reference
// midpoint at a fixed width. The strategy is the sole writer of Status;
// the gateway only ever touches the contained orders' fill fields.
type OrderPair struct {
	ID         string
	CreateTime time.Time
	Width      decimal.Decimal
	Status     PairStatus
	OpenPrice  decimal.Decimal
	Buy        *Order
	Sell       *Order
}

// NewOrderPair creates a Working pair around openPrice.
func NewOrderPair(id string, createTime time.Time, openPrice, width decimal.Decimal, buy, sell *Order) *OrderPair {
	return &OrderPair{
		ID:         id,
		CreateTime: createTime,
		Width:      width,
		Status:     PairWorking,
		OpenPrice:  openPrice,
		Buy:        buy,
		Sell:       sell,
	}
}

// IsComplete reports whether both legs are fully filled.
func (p *OrderPair) IsComplete() bool {
	return p.Buy != nil && p.Sell != nil && p.Buy.IsFilled() && p.Sell.IsFilled()
}

// ExpiredAt reports whether the pair has outlived maxAge at the given time.
// A non-positive maxAge disables expiry.
func (p *OrderPair) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(p.CreateTime) > maxAge
}

// Owns reports whether orderID belongs to one of the pair's legs.
func (p *OrderPair) Owns(orderID string) bool {
	return (p.Buy != nil && p.Buy.ID == orderID) || (p.Sell != nil && p.Sell.ID == orderID)
}
