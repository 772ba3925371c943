package app

import (
	"log/slog"

	"gridsim/internal/domain"
	"gridsim/internal/infra"
	"gridsim/internal/infra/feed"
	"gridsim/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Store    *storage.TradeStore
	Recorder *infra.TickRecorder
	Source   domain.TickSource
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, wires logging, storage, the tick recorder and
// the configured tick source.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping",
		slog.String("app", cfg.App.Name), slog.String("version", cfg.App.Version))

	if cfg.Storage.Enabled {
		store, err := storage.NewTradeStore(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		b.Store = store
		slog.Info("trade store initialized", slog.String("path", cfg.Storage.DBPath))
	}

	if cfg.Recorder.Enabled {
		rec, err := infra.NewTickRecorder(cfg.Recorder.Dir)
		if err != nil {
			return err
		}
		b.Recorder = rec
		slog.Info("tick recorder ready", slog.String("dir", cfg.Recorder.Dir))
	}

	switch cfg.Feed.Source {
	case "csv":
		replayer := feed.NewCSVReplayer(cfg.Feed.CSVPath, true)
		if err := replayer.Load(); err != nil {
			return err
		}
		b.Source = replayer
		slog.Info("csv feed loaded",
			slog.String("path", cfg.Feed.CSVPath), slog.Int("ticks", replayer.Len()))
	case "ws":
		b.Source = feed.NewWSFeed(cfg.Feed.WSURL, cfg.Feed.Symbol)
		slog.Info("ws feed configured", slog.String("url", cfg.Feed.WSURL))
	}

	return nil
}

// Close flushes and releases bootstrap-owned resources.
func (b *Bootstrap) Close() {
	if b.Recorder != nil {
		if err := b.Recorder.Close(); err != nil {
			slog.Warn("failed to close tick recorder", slog.Any("error", err))
		}
	}
}
