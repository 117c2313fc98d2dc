package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tjena007/Ticketing-System/internal/app"
	"github.com/tjena007/Ticketing-System/internal/infra/feed"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config

	// 3. Exchange (theaters, brokers, shared buffer)
	opts := app.Options{
		Metrics:  bootstrap.Metrics,
		Receipts: bootstrap.Recorders(),
	}
	if bootstrap.Storage != nil {
		opts.Runs = bootstrap.Storage
	}
	exchange := app.NewExchange(cfg, opts)

	// 4. Monitor (live feed + HTTP)
	if bootstrap.Hub != nil {
		hubCtx, stopHub := context.WithCancel(context.Background())
		defer stopHub()
		go bootstrap.Hub.Run(hubCtx)
		exchange.Observe("monitor", bootstrap.Hub.OnPriceCut)

		srv := &http.Server{
			Addr:              cfg.Monitor.Addr,
			Handler:           feed.NewRouter(bootstrap.Hub, bootstrap.Metrics, bootstrap.Ledger()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("🕵️ Monitor server started", slog.String("addr", cfg.Monitor.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Monitor server failed", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Monitor shutdown failed", slog.Any("error", err))
			}
		}()
	}

	slog.InfoContext(ctx, "✨ Ticket exchange operational. Press Ctrl+C to stop early.",
		slog.Int("theaters", cfg.Theater.Count),
		slog.Int("brokers", cfg.Broker.Count),
	)

	// 5. Run until every theater has sold its price cuts (or a signal arrives)
	summary := exchange.Run(ctx)

	slog.Info("👋 Shutting down gracefully...",
		slog.Any("price_cuts", summary.PriceCuts),
		slog.Int("orders_placed", summary.OrdersPlaced),
		slog.Int("dropped", summary.Dropped),
		slog.Any("metrics", bootstrap.Metrics.Snapshot()),
	)
}
