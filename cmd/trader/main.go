package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acalderon/weathertrader/config"
	"github.com/acalderon/weathertrader/internal/adapters/dashboard"
	"github.com/acalderon/weathertrader/internal/adapters/notify"
	"github.com/acalderon/weathertrader/internal/adapters/polymarket"
	"github.com/acalderon/weathertrader/internal/adapters/storage"
	"github.com/acalderon/weathertrader/internal/adapters/weather"
	"github.com/acalderon/weathertrader/internal/application/engine"
	"github.com/acalderon/weathertrader/internal/application/forecast"
	"github.com/acalderon/weathertrader/internal/application/scanner"
	"github.com/acalderon/weathertrader/internal/ports"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one full cycle and exit")
	scanOnly := flag.Bool("scan-only", false, "run one scan, print the report, place nothing")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)
	log := slog.Default()

	slog.Info("weathertrader starting",
		"config", *configPath,
		"once", *once,
		"scan_only", *scanOnly,
		"days_ahead", cfg.Scanner.DaysAhead,
	)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.APIKey, log)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	providers := []ports.ForecastProvider{
		weather.NewOpenMeteo("", log),
		weather.NewVisualCrossing("", cfg.Weather.VisualCrossingKey, log),
		weather.NewNOAA("", log),
		weather.NewBOM("", log),
		weather.NewMetService("", log),
	}
	resolver := forecast.NewResolver(providers, log)

	screener := scanner.NewScreener(scanner.ScreenConfig{
		MinHoursToResolution: cfg.Screen.MinHoursToResolution,
		MaxHoursToResolution: cfg.Screen.MaxHoursToResolution,
		MinPrice:             cfg.Screen.MinPrice,
		MaxPrice:             cfg.Screen.MaxPrice,
		MinBidLiquidity:      cfg.Screen.MinBidLiquidityUSDC,
		MinConfidence:        cfg.Screen.MinConfidence,
		MinEdgeLocal:         cfg.Screen.MinEdgeLocal,
		MinEdgeNoLocal:       cfg.Screen.MinEdgeNoLocal,
	}, store)

	scan := scanner.New(client, client, resolver, screener, cfg.Scanner.DaysAhead, log)
	notifier := notify.NewConsole(*table || *scanOnly)

	eng := engine.New(engine.Config{
		MaxOpenOrders:   cfg.Trading.MaxOpenOrders,
		MaxPositions:    cfg.Trading.MaxPositions,
		MaxNewPerCycle:  cfg.Trading.MaxNewPerCycle,
		CapitalBuffer:   cfg.Trading.CapitalBufferUSDC,
		StopLossPct:     cfg.Trading.StopLossPct,
		ProfitTargetPct: cfg.Trading.ProfitTargetPct,
		MinHoldEdge:     cfg.Trading.MinHoldEdge,
		TimeExitHours:   cfg.Trading.TimeExitHours,
		StrengthenPts:   cfg.Trading.StrengthenPts,
		CallTimeout:     15 * time.Second,
	}, store, client, resolver, scan, screener, notifier, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *scanOnly {
		candidates, err := scan.RunOnce(ctx)
		if err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
		if err := notifier.ScanReport(ctx, candidates); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return
	}

	if err := eng.StartupSweep(ctx); err != nil {
		slog.Error("startup sweep failed", "err", err)
		os.Exit(1)
	}

	if *once {
		if err := eng.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Dashboard.Enabled {
		dash := dashboard.NewServer(cfg.Dashboard.Addr, store, client, log)
		go func() {
			if err := dash.Run(ctx); err != nil {
				slog.Error("dashboard stopped", "err", err)
			}
		}()
	}

	sched := engine.NewScheduler(log, eng.Tasks()...)
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("trader exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("weathertrader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
