package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"MoveSentinel/internal/collector"
	"MoveSentinel/internal/slogx"
	"MoveSentinel/internal/source"
)

func main() {
	symbol := flag.String("symbol", "BTC-USD", "Ticker to download (BTC and ETH are mapped to Yahoo tickers)")
	rng := flag.String("range", "730d", "History range in Yahoo syntax; hourly data is limited to 730d")
	out := flag.String("out", "btc-1h.csv", "Output CSV path")
	proxy := flag.String("proxy", os.Getenv("HTTPS_PROXY"), "HTTP proxy URL")
	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	slog.SetDefault(slogx.NewDefault(*level))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := collector.NewYahooFetcher(*proxy)
	slog.Info("downloading hourly bars", "provider", fetcher.Name(), "symbol", *symbol, "range", *rng)

	bars, err := fetcher.FetchHourlyBars(ctx, *symbol, *rng)
	if err != nil {
		slog.Error("fetch bars", "error", err)
		os.Exit(1)
	}
	for _, g := range collector.Gaps(bars) {
		slog.Warn("missing hourly bars after", "open_time", g.UTC())
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("create output dir", "error", err)
			os.Exit(1)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		slog.Error("create output", "error", err)
		os.Exit(1)
	}
	if err := collector.WriteCSV(f, bars); err != nil {
		f.Close()
		slog.Error("write csv", "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		slog.Error("close output", "error", err)
		os.Exit(1)
	}

	// Reload through the scanner's own source to confirm the file is usable.
	src, err := source.Open(*out)
	if err != nil {
		slog.Error("written file does not load", "error", err)
		os.Exit(1)
	}
	slog.Info("saved", "path", *out, "bars", humanize.Comma(int64(src.Len())))
}
