package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retailx/theft-monitor/internal/annotate"
	"github.com/retailx/theft-monitor/internal/config"
	"github.com/retailx/theft-monitor/internal/detector"
	"github.com/retailx/theft-monitor/internal/eventlog"
	"github.com/retailx/theft-monitor/internal/logger"
	"github.com/retailx/theft-monitor/internal/metrics"
	"github.com/retailx/theft-monitor/internal/monitor"
	"github.com/retailx/theft-monitor/internal/notify"
	"github.com/retailx/theft-monitor/internal/source"
)

var (
	// Command-line flags
	sourceURL     = flag.String("source", "", "Video source: MJPEG stream URL or image directory")
	inferenceURL  = flag.String("inference", "http://localhost:8500/detect", "Detection service endpoint")
	confidence    = flag.Float64("confidence", 0.25, "Minimum detection confidence")
	alertFrames   = flag.Int("alert-frames", 3, "Consecutive concealed frames before an alert")
	cooldown      = flag.Duration("cooldown", 30*time.Second, "Minimum gap between alerts")
	historyCap    = flag.Int("history", 10, "Concealment history window size")
	snapshotDir   = flag.String("snapshot-dir", "./alerts", "Alert snapshot directory")
	eventLogPath  = flag.String("eventlog", "./alerts/alerts.db", "Alert journal path (empty disables)")
	frameInterval = flag.Duration("frame-interval", 100*time.Millisecond, "Replay interval for directory sources")
	detectTimeout = flag.Duration("detect-timeout", 10*time.Second, "Inference request timeout")
	dispatchTO    = flag.Duration("dispatch-timeout", 15*time.Second, "Notification request timeout")
	telegramToken = flag.String("telegram-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token")
	telegramChat  = flag.String("telegram-chat", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram chat ID")
	httpAddr      = flag.String("http", ":8081", "Status server address")
	metricsAddr   = flag.String("metrics", ":9090", "Metrics server address")
	logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error, silent)")
	logColor      = flag.Bool("log-color", true, "Enable colored log output")
)

func main() {
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, *logColor)

	logger.Info("Main", "Theft monitor starting...")

	cfg := config.Config{
		SourceURL:            *sourceURL,
		InferenceURL:         *inferenceURL,
		ConfidenceThreshold:  *confidence,
		AlertFramesThreshold: *alertFrames,
		AlertCooldown:        *cooldown,
		HistoryCapacity:      *historyCap,
		SnapshotDir:          *snapshotDir,
		EventLogPath:         *eventLogPath,
		TelegramToken:        *telegramToken,
		TelegramChatID:       *telegramChat,
		DispatchTimeout:      *dispatchTO,
		HTTPAddr:             *httpAddr,
		MetricsAddr:          *metricsAddr,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Frame source failing to open is fatal: the task cannot start.
	src, err := source.Open(ctx, cfg.SourceURL, *frameInterval)
	if err != nil {
		log.Fatalf("Failed to open video source %s: %v", cfg.SourceURL, err)
	}

	snapshots, err := annotate.NewWriter(cfg.SnapshotDir)
	if err != nil {
		log.Fatalf("Failed to prepare snapshot directory: %v", err)
	}

	var events *eventlog.Log
	if cfg.EventLogPath != "" {
		events, err = eventlog.Open(cfg.EventLogPath)
		if err != nil {
			log.Fatalf("Failed to open alert journal: %v", err)
		}
	}

	det := detector.NewClient(cfg.InferenceURL, cfg.ConfidenceThreshold, *detectTimeout)
	dispatcher := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.DispatchTimeout)
	mtr := metrics.New()

	mon := monitor.New(src, det, dispatcher, snapshots, events, mtr, cfg)
	statusServer := monitor.NewServer(cfg.HTTPAddr, mon, events)

	go func() {
		logger.Info("Main", "Starting metrics server on %s", cfg.MetricsAddr)
		if err := mtr.StartServer(cfg.MetricsAddr); err != nil {
			logger.Error("Main", "Metrics server error: %v", err)
		}
	}()

	go func() {
		logger.Info("Main", "Starting status server on %s", cfg.HTTPAddr)
		if err := statusServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Main", "Status server error: %v", err)
		}
	}()

	sup := monitor.Supervise(ctx, mon)

	logger.Info("Main", "Surveillance running (source=%s)", src.ID())

	// Wait for shutdown signal or the task ending on its own.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("Main", "Shutting down...")
	case <-sup.Done():
		logger.Info("Main", "Surveillance task finished")
	}

	if err := sup.Stop(); err != nil {
		logger.Error("Main", "Surveillance task error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Main", "Status server shutdown: %v", err)
	}

	if events != nil {
		if err := events.Close(); err != nil {
			logger.Error("Main", "Alert journal close: %v", err)
		}
	}

	logger.Info("Main", "Monitor stopped")
}
