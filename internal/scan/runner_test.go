package scan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoveSentinel/internal/config"
	"MoveSentinel/internal/detector"
	"MoveSentinel/internal/recorder"
	"MoveSentinel/internal/source"
)

type fakeSender struct {
	messages []string
	err      error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, maxRetries int) error {
	f.messages = append(f.messages, text)
	return f.err
}

const sampleCSV = "open_time,close,close_time\n" +
	"1700000000000,100,1700003599999\n" +
	"1700003600000,97,1700007199999\n" +
	"1700007200000,150,1700010799999\n" +
	"1700010800000,149,1700014399999\n"

func testConfig(t *testing.T, csv string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "btc-1h.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cfg := &config.Config{}
	cfg.Input.Path = path
	cfg.Input.CloseTimeColumn = "close_time"
	cfg.Input.ClosePriceColumn = "close"
	cfg.Input.SQLiteTable = source.DefaultTable
	cfg.Detection.PercentThreshold = 3
	cfg.Detection.IntervalMillis = detector.DefaultIntervalMillis
	cfg.Detection.TopN = 20
	cfg.Output.Timezone = "UTC"
	return cfg
}

func newRunner(cfg *config.Config, sender Sender, out io.Writer) *Runner {
	return &Runner{
		Config:   cfg,
		Notifier: sender,
		Recorder: recorder.NewNoopRecorder(),
		Out:      out,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	sender := &fakeSender{}
	res, err := newRunner(testConfig(t, sampleCSV), sender, &out).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, 4, res.Bars)
	assert.Zero(t, res.Dropped)
	require.Len(t, res.Events, 1)
	assert.InDelta(t, 54.639175, res.Events[0].Magnitude, 1e-5)

	assert.Equal(t, res.Table, out.String())
	assert.Contains(t, out.String(), "54.64")
	assert.Contains(t, out.String(), "2023-11-15 00:59:59")

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "Bars: 4")
	assert.Contains(t, sender.messages[0], "▲ 54.64%")
}

func TestRun_TopNLimitsEvents(t *testing.T) {
	cfg := testConfig(t, sampleCSV)
	cfg.Detection.PercentThreshold = 0.5
	cfg.Detection.TopN = 2

	res, err := newRunner(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, 2, strings.Count(res.Table, "\n"))
}

func TestRun_GapIsReported(t *testing.T) {
	csv := "close,close_time\n" +
		"100,1700003599999\n" +
		"101,1700007199999\n" +
		"102,1700014399999\n"
	sender := &fakeSender{}
	_, err := newRunner(testConfig(t, csv), sender, nil).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, detector.ErrGap)

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "scan failed")
}

func TestRun_StageErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := testConfig(t, sampleCSV)
		cfg.Input.Path = filepath.Join(t.TempDir(), "nope.csv")
		_, err := newRunner(cfg, nil, nil).Run(context.Background())
		assert.ErrorIs(t, err, source.ErrNotFound)
		assert.Contains(t, err.Error(), "open source")
	})
	t.Run("unknown column", func(t *testing.T) {
		cfg := testConfig(t, sampleCSV)
		cfg.Input.ClosePriceColumn = "adj_close"
		_, err := newRunner(cfg, nil, nil).Run(context.Background())
		assert.ErrorIs(t, err, detector.ErrConfiguration)
		assert.Contains(t, err.Error(), "configure detector")
	})
	t.Run("threshold out of range", func(t *testing.T) {
		cfg := testConfig(t, sampleCSV)
		cfg.Detection.PercentThreshold = 101
		_, err := newRunner(cfg, nil, nil).Run(context.Background())
		assert.ErrorIs(t, err, detector.ErrInvalidArgument)
	})
}

func TestRun_DeliveryFailureIsNotFatal(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	res, err := newRunner(testConfig(t, sampleCSV), sender, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
	assert.Len(t, sender.messages, 1)
}

func TestRun_EachRunHasOwnID(t *testing.T) {
	r := newRunner(testConfig(t, sampleCSV), nil, nil)
	a, err := r.Run(context.Background())
	require.NoError(t, err)
	b, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Events, b.Events)
}

type memRecorder struct {
	runs []recorder.RunRecord
}

func (m *memRecorder) RecordRun(run *recorder.RunRecord) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memRecorder) Recent(limit int) ([]recorder.RunRecord, error) {
	return m.runs[max(0, len(m.runs)-limit):], nil
}

func (m *memRecorder) Close() error { return nil }

func TestRun_RecordsHistory(t *testing.T) {
	rec := &memRecorder{}
	r := newRunner(testConfig(t, sampleCSV), nil, nil)
	r.Recorder = rec

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	r.Config.Input.ClosePriceColumn = "missing"
	_, err = r.Run(context.Background())
	require.Error(t, err)

	require.Len(t, rec.runs, 2)
	ok := rec.runs[0]
	assert.Equal(t, res.RunID, ok.RunID)
	assert.Equal(t, recorder.StatusOK, ok.Status)
	assert.Equal(t, 4, ok.Bars)
	assert.Equal(t, 1, ok.Events)
	assert.Equal(t, 3.0, ok.Threshold)

	failed := rec.runs[1]
	assert.Equal(t, recorder.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "configure detector")
	assert.Zero(t, failed.Events)
}
