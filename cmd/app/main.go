package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gridsim/internal/app"
	"gridsim/internal/domain"
	"gridsim/internal/engine"
	"gridsim/internal/gateway"
	"gridsim/internal/infra"
	"gridsim/internal/strategy"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config

	// Simulated venue
	gw := gateway.NewSimGateway()
	if iv := cfg.MinTickInterval(); iv > 0 {
		gw.SetMinTickInterval(iv)
	}

	// Strategy; NewPairsTrader registers itself for order updates.
	var store domain.TradeStore
	if bootstrap.Store != nil {
		store = bootstrap.Store
	}
	trader := strategy.NewPairsTrader(strategy.Config{
		Width:           cfg.Strategy.PairWidth,
		OrderQty:        cfg.Strategy.OrderQty,
		ProcessInterval: cfg.ProcessInterval(),
		MaxPairDuration: cfg.MaxPairDuration(),
	}, gw, store)

	// Single-threaded tick loop: gateway first, then strategy.
	dispatcher := engine.NewDispatcher(1024, gw, trader)
	if bootstrap.Recorder != nil {
		rec := bootstrap.Recorder
		dispatcher.AddHook(func(nbbo domain.Nbbo) {
			if err := rec.Record(nbbo); err != nil {
				slog.Warn("tick record failed", slog.Any("error", err))
			}
		})
	}

	go dispatcher.Run(ctx)

	// Feed ticks into the dispatcher until the source drains or we stop.
	feedDone := make(chan error, 1)
	go func() {
		feedDone <- bootstrap.Source.Run(ctx, dispatcher.Inbox())
	}()

	slog.Info("gridsim running, press Ctrl+C to exit")

	select {
	case <-ctx.Done():
	case err := <-feedDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("tick source failed", slog.Any("error", err))
		} else {
			slog.Info("tick source drained")
		}
	}

	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("shutting down",
		slog.Uint64("ticks", snap.TicksProcessed),
		slog.Uint64("fills", snap.Fills),
		slog.Uint64("pairs_opened", snap.PairsOpened),
		slog.Uint64("pairs_completed", snap.PairsCompleted),
		slog.Uint64("pairs_expired", snap.PairsExpired))
}
