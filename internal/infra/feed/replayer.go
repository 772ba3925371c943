package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"gridsim/internal/domain"

	"github.com/shopspring/decimal"
)

// CSVReplayer replays recorded NBBO ticks from a CSV file into a sink.
// The line format is the recorder's: unix nanoseconds, bid, bid size,
// ask, ask size.
type CSVReplayer struct {
	filePath string
	ticks    []domain.Nbbo
	paced    bool
}

// NewCSVReplayer creates a replayer. When paced is true, Run sleeps the
// recorded inter-tick gaps between pushes; otherwise it replays as fast
// as the sink accepts.
func NewCSVReplayer(filePath string, paced bool) *CSVReplayer {
	return &CSVReplayer{filePath: filePath, paced: paced}
}

// Load parses the CSV file into memory.
func (r *CSVReplayer) Load() error {
	file, err := os.Open(r.filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("empty csv file: %s", r.filePath)
	}

	r.ticks = make([]domain.Nbbo, 0, len(records))
	for i, record := range records {
		tick, err := parseTick(record)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return fmt.Errorf("parse tick at line %d: %w", i+1, err)
		}
		r.ticks = append(r.ticks, tick)
	}

	return nil
}

// Len returns the number of loaded ticks.
func (r *CSVReplayer) Len() int {
	return len(r.ticks)
}

// Run pushes every loaded tick into the sink in file order.
func (r *CSVReplayer) Run(ctx context.Context, sink chan<- domain.Nbbo) error {
	var prev time.Time
	for _, tick := range r.ticks {
		if r.paced && !prev.IsZero() {
			if gap := tick.Time.Sub(prev); gap > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(gap):
				}
			}
		}
		prev = tick.Time

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sink <- tick:
		}
	}
	return nil
}

func parseTick(record []string) (domain.Nbbo, error) {
	if len(record) < 5 {
		return domain.Nbbo{}, fmt.Errorf("want 5 fields, got %d", len(record))
	}

	nanos, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return domain.Nbbo{}, fmt.Errorf("timestamp: %w", err)
	}

	fields := make([]decimal.Decimal, 4)
	for i, raw := range record[1:5] {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Nbbo{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		fields[i] = d
	}

	return domain.Nbbo{
		Time:    time.Unix(0, nanos),
		Bid:     fields[0],
		BidSize: fields[1],
		Ask:     fields[2],
		AskSize: fields[3],
	}, nil
}

var _ domain.TickSource = (*CSVReplayer)(nil)
