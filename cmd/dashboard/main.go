package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/config"
	"MarketDashboard/internal/dashboard"
	"MarketDashboard/internal/metrics"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/notifier"
	"MarketDashboard/internal/overlay"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/scheduler"
	"MarketDashboard/internal/server"

	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketDashboard starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			log.Fatalf("[FATAL] create log dir: %v", err)
		}
		logFile := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.Backend.Mock {
		fetcher = collector.NewMockFetcher()
	} else {
		opts := collector.BackendOptions{
			BaseURL:  cfg.Backend.BaseURL,
			ProxyURL: cfg.Proxy,
			Timeout:  time.Duration(cfg.Backend.TimeoutSec) * time.Second,
			RPS:      cfg.Backend.RPS,
			Burst:    cfg.Backend.Burst,
		}
		if cfg.Backend.YahooFallback {
			opts.Fallback = collector.NewYahooSource(cfg.Proxy)
		}
		fetcher = collector.NewHTTPFetcher(opts)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	met := metrics.New()

	// Alerts always reach the log; Telegram joins when configured.
	alerters := notifier.Multi{notifier.LogAlerter{}}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerters = append(alerters, tn)
	}

	kinds := make([]model.IndicatorKind, 0, len(cfg.Dashboard.Indicators))
	for _, name := range cfg.Dashboard.Indicators {
		k, _ := model.ParseIndicatorKind(name) // validated above
		kinds = append(kinds, k)
	}

	opts := dashboard.Options{
		Fetcher:     fetcher,
		Alerter:     alerters,
		Recorder:    rec,
		Metrics:     met,
		Language:    cfg.Dashboard.Language,
		Model:       cfg.Dashboard.Model,
		Period:      cfg.Dashboard.Period,
		Tab:         cfg.Dashboard.Tab,
		Indicators:  kinds,
		SRReference: overlay.RangeReference(cfg.Dashboard.SRReference),
		OptionsRows: cfg.Dashboard.OptionsRows,
	}
	prefs, err := dashboard.LoadPrefs(cfg.Dashboard.StateFile)
	if err != nil {
		log.Printf("[WARN] load dashboard state, using config: %v", err)
	}
	prefs.Apply(&opts)

	dash, err := dashboard.New(opts)
	if err != nil {
		log.Fatalf("[FATAL] init dashboard: %v", err)
	}
	defer dash.Close()
	if prefs != nil && prefs.Ticker != "" {
		if _, err := dash.SelectTicker(prefs.Ticker); err != nil {
			log.Printf("[WARN] restore ticker %s: %v", prefs.Ticker, err)
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, dash, met)
	if err := sched.RegisterAll(cfg.Schedule.PricesCron, cfg.Schedule.MacroCron, cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	srv := server.New(cfg.Server.Addr, dash, met)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("[ERROR] http server: %v", err)
			cancel()
		}
	}()

	// Initial load, as opening the dashboard does.
	go sched.RunRefreshNow()

	log.Println("[INFO] MarketDashboard is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	if err := dashboard.SavePrefs(cfg.Dashboard.StateFile, dash.Prefs()); err != nil {
		log.Printf("[ERROR] save dashboard state: %v", err)
	}
	cancel()
	log.Println("[INFO] MarketDashboard stopped")
}
