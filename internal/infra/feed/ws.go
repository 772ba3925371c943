package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gridsim/internal/domain"
	"gridsim/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	maxRetries = 10
	readTimeout  = 60 * time.Second
)

// quoteMessage is the wire shape of one NBBO quote.
type quoteMessage struct {
	Type      string  `json:"type"` // quote
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
	Bid       float64 `json:"bid"`
	BidSize   float64 `json:"bid_size"`
	Ask       float64 `json:"ask"`
	AskSize   float64 `json:"ask_size"`
}

// WSFeed streams NBBO quotes from a WebSocket endpoint, reconnecting
// with exponential backoff. A full sink drops the quote rather than
// stalling the read loop.
type WSFeed struct {
	url    string
	symbol string

	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex
}

// NewWSFeed creates a feed for one symbol.
func NewWSFeed(url, symbol string) *WSFeed {
	return &WSFeed{url: url, symbol: symbol}
}

// Run connects and pushes quotes into sink until ctx is cancelled.
func (f *WSFeed) Run(ctx context.Context, sink chan<- domain.Nbbo) error {
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			f.closeConnection()
			return ctx.Err()
		default:
		}

		if err := f.connect(ctx); err != nil {
			slog.Warn("feed connection failed",
				slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			f.readLoop(ctx, sink)
		}
	}
}

func (f *WSFeed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	if err := f.subscribe(); err != nil {
		f.closeConnection()
		return err
	}

	slog.Info("feed connected", slog.String("symbol", f.symbol))
	return nil
}

func (f *WSFeed) subscribe() error {
	msg := map[string]interface{}{
		"op":      "subscribe",
		"channel": "quote",
		"symbols": []string{f.symbol},
	}
	b, _ := json.Marshal(msg)
	return f.threadSafeWrite(websocket.TextMessage, b)
}

func (f *WSFeed) threadSafeWrite(msgType int, data []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.conn == nil {
		return fmt.Errorf("no conn")
	}
	return f.conn.WriteMessage(msgType, data)
}

func (f *WSFeed) readLoop(ctx context.Context, sink chan<- domain.Nbbo) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		if f.conn == nil {
			f.mu.RUnlock()
			return
		}
		f.conn.SetReadDeadline(time.Now().Add(readTimeout))
		f.mu.RUnlock()

		_, msg, err := f.conn.ReadMessage()
		if err != nil {
			f.closeConnection()
			return
		}
		f.handleMessage(msg, sink)
	}
}

func (f *WSFeed) handleMessage(msg []byte, sink chan<- domain.Nbbo) {
	var quote quoteMessage
	if json.Unmarshal(msg, &quote) != nil || quote.Type != "quote" {
		return
	}
	if quote.Symbol != "" && quote.Symbol != f.symbol {
		return
	}

	nbbo := domain.Nbbo{
		Time:    time.UnixMilli(quote.Timestamp),
		Bid:     decimal.NewFromFloat(quote.Bid),
		BidSize: decimal.NewFromFloat(quote.BidSize),
		Ask:     decimal.NewFromFloat(quote.Ask),
		AskSize: decimal.NewFromFloat(quote.AskSize),
	}

	select {
	case sink <- nbbo:
	default: // consume promptly or accept staleness
	}
}

func (f *WSFeed) closeConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

var _ domain.TickSource = (*WSFeed)(nil)
