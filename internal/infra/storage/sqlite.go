package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gridsim/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TradeStore persists fills and finished pairs to SQLite.
type TradeStore struct {
	db *gorm.DB
}

// NewTradeStore opens (and migrates) the database at dbPath.
func NewTradeStore(dbPath string) (*TradeStore, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go SQLite
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.FillRecord{}, &domain.PairRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &TradeStore{db: db}, nil
}

// SaveFill appends a fill snapshot for the order.
func (s *TradeStore) SaveFill(order *domain.Order, at time.Time) error {
	rec := domain.FillRecord{
		OrderID:  order.ID,
		Side:     order.Side.String(),
		CumQty:   order.CumQty.String(),
		AvgPx:    order.AvgPx.String(),
		FilledAt: at,
	}
	return s.db.Create(&rec).Error
}

// SavePair upserts the finished pair.
func (s *TradeStore) SavePair(pair *domain.OrderPair) error {
	rec := domain.PairRecord{
		PairID:     pair.ID,
		Status:     pair.Status.String(),
		OpenPrice:  pair.OpenPrice.String(),
		Width:      pair.Width.String(),
		BuyPx:      pair.Buy.LimitPrice.String(),
		BuyQty:     pair.Buy.OrderQty.String(),
		BuyCumQty:  pair.Buy.CumQty.String(),
		SellPx:     pair.Sell.LimitPrice.String(),
		SellQty:    pair.Sell.OrderQty.String(),
		SellCumQty: pair.Sell.CumQty.String(),
		OpenedAt:   pair.CreateTime,
	}
	return s.db.Save(&rec).Error
}

// GetPair retrieves a persisted pair by ID.
func (s *TradeStore) GetPair(pairID string) (*domain.PairRecord, error) {
	var rec domain.PairRecord
	err := s.db.First(&rec, "pair_id = ?", pairID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &rec, err
}

// GetPairsByStatus retrieves all pairs in the given status.
func (s *TradeStore) GetPairsByStatus(status domain.PairStatus) ([]domain.PairRecord, error) {
	var recs []domain.PairRecord
	err := s.db.Where("status = ?", status.String()).Find(&recs).Error
	return recs, err
}

// GetFills retrieves all fill snapshots for an order in insert order.
func (s *TradeStore) GetFills(orderID string) ([]domain.FillRecord, error) {
	var recs []domain.FillRecord
	err := s.db.Where("order_id = ?", orderID).Order("id").Find(&recs).Error
	return recs, err
}

var _ domain.TradeStore = (*TradeStore)(nil)
