package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mhedlund/pricetracker/config"
	"mhedlund/pricetracker/internal/engine"
	"mhedlund/pricetracker/internal/fetch"
	"mhedlund/pricetracker/internal/history"
	"mhedlund/pricetracker/internal/product"
	"mhedlund/pricetracker/internal/scanner"
	"mhedlund/pricetracker/logger"
	"mhedlund/pricetracker/services/cache"
	"mhedlund/pricetracker/services/notify"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	runOnce := flag.Bool("run-once", false, "perform exactly one scan and exit")
	testNotification := flag.Bool("test-notification", false, "send a test notification and exit")
	flag.Parse()

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("scan_interval", cfg.ScanInterval).
		Msg("Starting price tracker")

	sink := buildNotifier(&cfg)
	defer sink.Close()

	// Set up context with cancellation and signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Delivery dry run: never touches the history store or tracked items.
	if *testNotification {
		testCtx, testCancel := context.WithTimeout(ctx, 30*time.Second)
		defer testCancel()
		if err := sink.Test(testCtx); err != nil {
			log.Error().Err(err).Msg("Test notification failed")
			sink.Close()
			os.Exit(1)
		}
		log.Info().Msg("Test notification delivered")
		return
	}

	items, err := config.LoadProducts(cfg.ProductsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load tracked items")
	}
	log.Info().Int("items", len(items)).Msg("Loaded tracked items")

	store := history.NewStore(cfg.HistoryFile)
	if err := store.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load price history")
	}

	scn := scanner.New(
		engine.New(buildFetchClient(&cfg), store, sink),
		store,
		cfg.ItemTimeout,
		cfg.ScanConcurrency,
	)

	if *runOnce {
		summary, err := scn.Scan(ctx, items)
		if err != nil || summary.Failed() {
			sink.Close()
			os.Exit(1)
		}
		return
	}

	runScheduled(ctx, &cfg, scn, items)
}

// buildNotifier wires the configured sinks into one fan-out notifier. With
// nothing configured, alerts go to the log so qualifying deals stay visible.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var sinks []notify.Notifier
	if cfg.RedisAddr != "" {
		sinks = append(sinks, notify.NewRedisNotifier(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMax))
		logger.Info("Publishing alerts to Redis at %s (stream: %s)", cfg.RedisAddr, cfg.RedisStream)
	}
	if cfg.PushbulletToken != "" {
		sinks = append(sinks, notify.NewPushNotifier(cfg.PushbulletToken))
		logger.Info("Pushbullet notifications enabled")
	}
	if len(sinks) == 0 {
		logger.Warn("No notification sink configured, alerts will only be logged")
		sinks = append(sinks, notify.NewLogNotifier())
	}
	return notify.NewMulti(sinks...)
}

func buildFetchClient(cfg *config.Config) *fetch.Client {
	var cacheSvc cache.CacheService = cache.NullCache{}
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}
	return fetch.NewClient(
		cfg.FetchTimeout,
		cfg.UserAgent,
		fetch.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		cacheSvc,
	)
}

// runScheduled scans immediately, then on the configured interval until the
// context is cancelled. The metrics endpoint is only served in this mode.
func runScheduled(ctx context.Context, cfg *config.Config, scn *scanner.Scanner, items []product.TrackedItem) {
	log := logger.ForComponent("main")

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("Metrics endpoint stopped")
			}
		}()
	}

	scanOnce(ctx, scn, items, log)

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down gracefully...")
			return
		case <-ticker.C:
			scanOnce(ctx, scn, items, log)
		}
	}
}

func scanOnce(ctx context.Context, scn *scanner.Scanner, items []product.TrackedItem, log *logger.Logger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := scn.Scan(ctx, items); err != nil {
		log.Error().Err(err).Msg("Scan failed")
	}
}
