package recorder

import "time"

// RunRecord summarises one scan. Detected events are not stored.
type RunRecord struct {
	RunID          string
	StartedAt      time.Time
	Source         string
	Format         string
	Bars           int
	Dropped        int
	Threshold      float64
	IntervalMillis int64
	Events         int
	Status         string // "OK" or "FAILED"
	Error          string
	Elapsed        time.Duration
}

// Run statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// Recorder persists scan history for later inspection.
type Recorder interface {
	RecordRun(run *RunRecord) error
	Recent(limit int) ([]RunRecord, error)
	Close() error
}
