package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"MoveSentinel/internal/config"
	"MoveSentinel/internal/notifier"
	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/scan"
	"MoveSentinel/internal/scheduler"
	"MoveSentinel/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config validation", "error", err)
		return 1
	}
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel))
	slog.Info("MoveSentinel starting",
		"input", cfg.Input.Path,
		"threshold", cfg.Detection.PercentThreshold,
		"interval_ms", cfg.Detection.IntervalMillis,
		"top_n", cfg.Detection.TopN)

	runner := &scan.Runner{Config: cfg, Out: os.Stdout}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			slog.Warn("init sqlite recorder failed, using noop", "error", err)
		} else {
			rec = sr
		}
	}
	defer rec.Close()
	runner.Recorder = rec

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		runner.Notifier = tn
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Without a schedule the binary is a one-shot scan.
	if cfg.Schedule.ScanCron == "" {
		if _, err := runner.Run(ctx); err != nil {
			return 1
		}
		return 0
	}

	sched := scheduler.New(ctx, runner, rec, cfg.Schedule.ScanCron)
	if err := sched.Register(); err != nil {
		slog.Error("register scan task", "error", err)
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		slog.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		slog.Info("RUN_ON_START enabled, scanning now")
		go func() {
			if _, err := sched.RunNow(); err != nil {
				slog.Error("startup scan", "error", err)
			}
		}()
	}

	slog.Info("MoveSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	slog.Info("shutdown signal received, stopping...")
	return 0
}
