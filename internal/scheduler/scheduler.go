package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/scan"
)

// ErrBusy is returned when a scan is requested while another one is running.
var ErrBusy = errors.New("a scan is already running")

// historyLimit is how many past runs /history lists.
const historyLimit = 5

// Runner performs one complete scan.
type Runner interface {
	Run(ctx context.Context) (*scan.Result, error)
}

// Scheduler re-runs the scan on a cron schedule and on demand. Runs never overlap.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	history recorder.Recorder
	spec    string
	ctx     context.Context
	running atomic.Bool

	mu      sync.Mutex
	lastAt  time.Time
	lastRes *scan.Result
	lastErr error
}

// New creates a Scheduler. spec uses the six-field cron syntax with seconds.
// history backs the /history command.
func New(ctx context.Context, runner Runner, history recorder.Recorder, spec string) *Scheduler {
	logger := cronLogger{slog.Default().With("component", "cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		runner:  runner,
		history: history,
		spec:    spec,
		ctx:     ctx,
	}
}

// Register adds the scan job.
func (s *Scheduler) Register() error {
	if s.spec == "" {
		return fmt.Errorf("register scan task: empty cron spec")
	}
	if _, err := s.cron.AddFunc(s.spec, s.scheduledScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunNow executes a scan immediately. It returns ErrBusy instead of waiting
// when a scan is in progress.
func (s *Scheduler) RunNow() (*scan.Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	res, err := s.runner.Run(s.ctx)

	s.mu.Lock()
	s.lastAt = time.Now()
	s.lastRes, s.lastErr = res, err
	s.mu.Unlock()
	return res, err
}

func (s *Scheduler) scheduledScan() {
	slog.Info("running scheduled scan")
	if _, err := s.RunNow(); err != nil {
		slog.Error("scheduled scan", "error", err)
	}
}

// HandleCommand processes a chat command and returns a reply.
// A successful /scan replies with nothing; the runner delivers the report.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/scan":
		if _, err := s.RunNow(); errors.Is(err, ErrBusy) {
			return "⏳ " + err.Error()
		}
		return ""
	case "/status":
		return s.status()
	case "/history":
		return s.recentRuns()
	default:
		return "Commands:\n• /scan - run a scan now\n• /status - last scan result\n• /history - recent scans"
	}
}

func (s *Scheduler) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastAt.IsZero() {
		return "No scan has run yet."
	}
	at := s.lastAt.Format(time.DateTime)
	if s.lastErr != nil {
		return fmt.Sprintf("Last scan at %s failed: %s", at, html.EscapeString(s.lastErr.Error()))
	}
	return fmt.Sprintf("Last scan at %s: %d bars, %d moves", at, s.lastRes.Bars, len(s.lastRes.Events))
}

func (s *Scheduler) recentRuns() string {
	runs, err := s.history.Recent(historyLimit)
	if err != nil {
		slog.Error("load run history", "error", err)
		return "Run history is unavailable."
	}
	if len(runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	b.WriteString("<b>Recent scans:</b>\n")
	for _, run := range runs {
		at := run.StartedAt.Format(time.DateTime)
		if run.Status == recorder.StatusFailed {
			b.WriteString(fmt.Sprintf("❌ %s %s\n", at, html.EscapeString(run.Error)))
			continue
		}
		b.WriteString(fmt.Sprintf("✅ %s %d bars, %d moves\n", at, run.Bars, run.Events))
	}
	return b.String()
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
