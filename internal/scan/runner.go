package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"MoveSentinel/internal/config"
	"MoveSentinel/internal/detector"
	"MoveSentinel/internal/model"
	"MoveSentinel/internal/notifier"
	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/source"
)

// MaxSendRetries is how often a report delivery is retried after the first attempt.
const MaxSendRetries = 3

// Sender delivers a rendered report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Runner performs one complete scan per Run call. Each run re-opens the input.
type Runner struct {
	Config   *config.Config
	Notifier Sender            // nil disables delivery
	Recorder recorder.Recorder // use recorder.NewNoopRecorder() to disable run history
	Out      io.Writer         // receives the event table; nil discards it
	Logger   *slog.Logger      // nil means slog.Default()
}

// Result is the outcome of one scan.
type Result struct {
	RunID   string
	Source  string
	Format  string
	Bars    int
	Dropped int
	Events  []model.ChangeEvent
	Table   string
	Report  string
	Elapsed time.Duration
}

// Run opens the configured source, collects the first TopN events and
// renders them. Failures are wrapped with the stage that failed; the
// underlying source or detector error stays matchable with errors.Is.
// A failed scan is still reported through the Notifier.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Source: r.Config.Input.Path}
	log := r.logger().With("run", res.RunID, "source", res.Source)
	log.Info("scan started")

	if err := r.scan(res); err != nil {
		res.Elapsed = time.Since(start)
		log.Error("scan failed", "error", err)
		r.record(log, start, res, err)
		r.deliver(ctx, log, notifier.FormatFailure(res.Source, err))
		return nil, err
	}

	res.Elapsed = time.Since(start)
	r.record(log, start, res, nil)
	log.Info("scan finished",
		"format", res.Format, "bars", res.Bars, "dropped", res.Dropped,
		"events", len(res.Events), "elapsed", res.Elapsed)

	if r.Out != nil {
		if _, err := io.WriteString(r.Out, res.Table); err != nil {
			return nil, fmt.Errorf("write table: %w", err)
		}
	}
	r.deliver(ctx, log, res.Report)
	return res, nil
}

func (r *Runner) scan(res *Result) error {
	cfg := r.Config
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	src, err := source.Open(cfg.Input.Path, source.WithTable(cfg.Input.SQLiteTable))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	res.Format = src.Format()
	res.Bars = src.Len()
	res.Dropped = src.Dropped()

	det := detector.New(src)
	if err := det.SetCloseTimeColumn(cfg.Input.CloseTimeColumn); err != nil {
		return fmt.Errorf("configure detector: %w", err)
	}
	if err := det.SetClosePriceColumn(cfg.Input.ClosePriceColumn); err != nil {
		return fmt.Errorf("configure detector: %w", err)
	}

	seq, err := det.Analyze(cfg.Detection.PercentThreshold, cfg.Detection.IntervalMillis)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	events, err := notifier.FirstN(seq, cfg.Detection.TopN)
	if err != nil {
		return fmt.Errorf("analyze after %d events: %w", len(events), err)
	}
	res.Events = events

	res.Table = notifier.FormatTable(events, loc)
	res.Report = notifier.FormatTelegramReport(notifier.Summary{
		Source:    res.Source,
		Bars:      res.Bars,
		Dropped:   res.Dropped,
		Threshold: cfg.Detection.PercentThreshold,
		Interval:  time.Duration(cfg.Detection.IntervalMillis) * time.Millisecond,
		Limit:     cfg.Detection.TopN,
	}, events, loc)
	return nil
}

func (r *Runner) deliver(ctx context.Context, log *slog.Logger, text string) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.SendWithRetry(ctx, text, MaxSendRetries); err != nil {
		log.Error("send report", "error", err)
	}
}

func (r *Runner) record(log *slog.Logger, start time.Time, res *Result, scanErr error) {
	run := &recorder.RunRecord{
		RunID:          res.RunID,
		StartedAt:      start,
		Source:         res.Source,
		Format:         res.Format,
		Bars:           res.Bars,
		Dropped:        res.Dropped,
		Threshold:      r.Config.Detection.PercentThreshold,
		IntervalMillis: r.Config.Detection.IntervalMillis,
		Events:         len(res.Events),
		Status:         recorder.StatusOK,
		Elapsed:        res.Elapsed,
	}
	if scanErr != nil {
		run.Status = recorder.StatusFailed
		run.Error = scanErr.Error()
	}
	if err := r.Recorder.RecordRun(run); err != nil {
		log.Error("record run", "error", err)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
