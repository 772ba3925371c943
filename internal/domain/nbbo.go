package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Nbbo is a single best-bid/best-offer snapshot. It is a value type:
// a new tick is always a new instance, never a mutation of an old one.
type Nbbo struct {
	Time    time.Time       `json:"time"`
	Bid     decimal.Decimal `json:"bid"`
	BidSize decimal.Decimal `json:"bid_size"`
	Ask     decimal.Decimal `json:"ask"`
	AskSize decimal.Decimal `json:"ask_size"`
}

// Midpoint returns (bid+ask)/2.
func (n Nbbo) Midpoint() decimal.Decimal {
	return n.Bid.Add(n.Ask).Div(decimal.NewFromInt(2))
}

// SameTouch reports whether both bid and ask are unchanged from other.
func (n Nbbo) SameTouch(other Nbbo) bool {
	return n.Bid.Equal(other.Bid) && n.Ask.Equal(other.Ask)
}

// CSVRecord renders the tick in the recorder's line format:
// unix nanoseconds, bid, bid size, ask, ask size.
func (n Nbbo) CSVRecord() string {
	return fmt.Sprintf("%d,%s,%s,%s,%s",
		n.Time.UnixNano(), n.Bid, n.BidSize, n.Ask, n.AskSize)
}

func (n Nbbo) String() string {
	return n.CSVRecord()
}
