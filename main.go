package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workout-thread-bot/internal/config"
	"workout-thread-bot/internal/database"
	"workout-thread-bot/internal/discord"
	"workout-thread-bot/internal/metrics"
	"workout-thread-bot/internal/report"
	"workout-thread-bot/internal/rollup"
	"workout-thread-bot/internal/scanner"
	"workout-thread-bot/internal/scheduler"
	"workout-thread-bot/internal/syncer"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting workout-thread-bot",
		"database", cfg.DatabasePath,
		"timezone", cfg.TimeZone,
		"log_level", cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Error("Failed to load time zone", "timezone", cfg.TimeZone, "error", err)
		os.Exit(1)
	}

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Database opened successfully")

	// Core services
	engine := rollup.NewEngine(db)
	reports := report.NewService(db)

	// Discord client doubles as the scanner's thread gateway, so the
	// reconciliation stack is bound to it after construction
	client, err := discord.New(cfg, loc, db, reports)
	if err != nil {
		logger.Error("Failed to create discord client", "error", err)
		os.Exit(1)
	}
	sc := scanner.New(client)
	sync := syncer.New(db, sc, engine)
	client.BindSyncer(sync)

	if err := client.Start(); err != nil {
		logger.Error("Failed to connect to discord", "error", err)
		os.Exit(1)
	}
	defer client.Stop()

	// Scheduled jobs, evaluated in the bot's time zone
	sched := scheduler.New(loc)

	err = sched.Add(cfg.DailyThreadCron, "daily_thread", func() {
		if err := client.CreateDailyThread(time.Now().In(loc)); err != nil {
			logger.Error("Daily thread job failed", "error", err)
			client.SendAlert(discord.AlertError, "scheduler.daily_thread",
				fmt.Sprintf("일일 스레드 생성 실패: %v", err), "")
		}
	})
	if err != nil {
		logger.Error("Failed to schedule daily thread job", "error", err)
		os.Exit(1)
	}

	err = sched.Add(cfg.DailyRollupCron, "daily_rollup", func() {
		res := engine.RecomputeAll(time.Now().In(loc))
		if !res.AllOK() {
			client.SendAlert(discord.AlertError, "scheduler.daily_rollup",
				"일일 통계 재계산 실패 (자세한 내용은 로그 참조)", "")
		}
	})
	if err != nil {
		logger.Error("Failed to schedule daily rollup job", "error", err)
		os.Exit(1)
	}

	err = sched.Add(cfg.WeeklyReportCron, "weekly_champions", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := client.PostWeeklyChampions(ctx, sc, time.Now().In(loc)); err != nil {
			logger.Error("Weekly champions job failed", "error", err)
			client.SendAlert(discord.AlertError, "scheduler.weekly_champions",
				fmt.Sprintf("주간 운동왕 발표 실패: %v", err), "")
		}
	})
	if err != nil {
		logger.Error("Failed to schedule weekly champions job", "error", err)
		os.Exit(1)
	}

	sched.Start()
	defer sched.Stop()

	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	defer collectorCancel()

	// Start store gauge collector if metrics are enabled
	if cfg.MetricsEnabled {
		go func() {
			logger.Info("Starting store collector")
			metrics.StartStoreCollector(collectorCtx, db, 15*time.Second)
		}()
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	collectorCancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Bot stopped")
}
