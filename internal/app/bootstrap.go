package app

import (
	"errors"
	"log/slog"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/infra"
	"github.com/tjena007/Ticketing-System/internal/infra/feed"
	"github.com/tjena007/Ticketing-System/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage // nil when storage is disabled
	Hub     *feed.Hub        // nil when the monitor is disabled
	Metrics *infra.Metrics
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, feed).
// A missing config file is not fatal: the reference configuration is used.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	fallback := errors.Is(err, domain.ErrConfigNotFound)
	if fallback {
		cfg, err = infra.DefaultConfigFromEnv()
	}
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping ticket exchange...", slog.String("version", cfg.App.Version))
	if fallback {
		slog.Warn("Config file not found, using defaults", slog.String("path", configPath))
	}

	b.Metrics = infra.GlobalMetrics

	// 3. Initialize Storage (DB)
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("✅ Receipt ledger initialized")
	}

	// 4. Initialize live feed
	if cfg.Monitor.Enabled {
		b.Hub = feed.NewHub()
		slog.Info("✅ Live feed ready", slog.String("addr", cfg.Monitor.Addr))
	}

	return nil
}

// Recorders returns every configured receipt sink.
func (b *Bootstrap) Recorders() infra.Recorders {
	var rs infra.Recorders
	if b.Storage != nil {
		rs = append(rs, b.Storage)
	}
	if b.Hub != nil {
		rs = append(rs, b.Hub)
	}
	return rs
}

// Ledger returns the receipt store for the monitor, or nil when storage is disabled.
func (b *Bootstrap) Ledger() feed.Ledger {
	if b.Storage == nil {
		return nil
	}
	return b.Storage
}

// Close releases what Initialize opened.
func (b *Bootstrap) Close() error {
	if b.Storage != nil {
		return b.Storage.Close()
	}
	return nil
}
