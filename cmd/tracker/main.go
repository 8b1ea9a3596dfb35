package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crypto_tracker/internal/alerts"
	"crypto_tracker/internal/cache"
	"crypto_tracker/internal/config"
	"crypto_tracker/internal/logger"
	"crypto_tracker/internal/market/coingecko"
	"crypto_tracker/internal/metrics"
	"crypto_tracker/internal/notify"
	"crypto_tracker/internal/portfolio"
	"crypto_tracker/internal/storage"
	"crypto_tracker/internal/telegram"
	"crypto_tracker/internal/theme"
	"crypto_tracker/internal/ui"
	"crypto_tracker/internal/watcher"
	"crypto_tracker/internal/watchlist"
)

const VersionFile = "version.latest"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crypto tracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Version = config.ReadVersion(VersionFile)

	_, flush, err := logger.Setup(logger.Options{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFile,
		MaxSizeMB:  cfg.MaxLogSizeMB,
		MaxBackups: cfg.MaxLogBackups,
		Console:    !cfg.EnableTUI,
	})
	if err != nil {
		return err
	}
	defer flush()
	config.LogEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	store, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	// 3. Market data
	provider := coingecko.NewProvider(coingecko.Options{
		BaseURL:           cfg.MarketAPIBaseURL,
		APIKey:            cfg.MarketAPIKey,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerMinute: cfg.APIRequestsPerMinute,
		Cache:             cache.New(cfg.CacheTTL, nil),
	})

	// 4. Notifications
	bell := io.Writer(os.Stdout)
	if cfg.EnableTUI {
		bell = io.Discard
	}
	notifiers := notify.Multi{notify.NewConsole(bell)}
	if cfg.DesktopNotify {
		notifiers = append(notifiers, notify.NewDesktop())
	}

	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramBotToken, cfg.TelegramChatID, "")
		if err != nil {
			// Keep running locally without chat
			zap.L().Error("Telegram disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, bot)
		}
	}

	// 5. Persistent state
	ledger := portfolio.New(store, decimal.NewFromFloat(cfg.InitialBalance))
	ledger.Load(ctx)
	if err := ledger.Reconcile(); err != nil {
		zap.L().Warn("Ledger does not match its transaction log", zap.Error(err))
	}
	wl := watchlist.New(store)
	wl.Load(ctx)
	th := theme.New(store)
	th.Load(ctx)
	engine := alerts.NewEngine(store, provider, notifiers)
	engine.Load(ctx)

	w := watcher.New(cfg, watcher.Deps{
		Provider:  provider,
		Ledger:    ledger,
		Watchlist: wl,
		Alerts:    engine,
		Theme:     th,
	})

	// 6. Front ends
	if cfg.MetricsAddr != "" {
		go metrics.Serve(ctx, cfg.MetricsAddr)
	}
	if bot != nil {
		go bot.Listen(ctx, w.HandleCommand)
		if err := bot.Send(w.Startup()); err != nil {
			zap.L().Warn("Startup message failed", zap.Error(err))
		}
	}

	var app *ui.App
	if cfg.EnableTUI {
		app = ui.NewApp(w.HandleCommand, th.Palette)
		go func() {
			if err := app.Run(ctx); err != nil {
				zap.L().Error("TUI stopped", zap.Error(err))
			}
			// Quitting the UI ends the process
			stop()
		}()
	}

	zap.L().Info("Crypto Tracker initialized",
		zap.String("version", cfg.Version),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.String("storage", cfg.StorageBackend))

	// 7. Main loop
	w.Poll(ctx)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("🛑 Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := w.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("Failed to save state on shutdown", zap.Error(err))
			}
			return nil
		case <-ticker.C:
			w.Poll(ctx)
			if app != nil {
				app.Refresh()
			}
			zap.L().Debug("Next poll scheduled", zap.Time("at", time.Now().Add(cfg.PollInterval)))
		}
	}
}
