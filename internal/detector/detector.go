package detector

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/shopspring/decimal"

	"MoveSentinel/internal/calculator"
	"MoveSentinel/internal/model"
)

// DefaultIntervalMillis is the expected spacing of hourly bars.
const DefaultIntervalMillis int64 = 60 * 60 * 1000

// RecordSource is the dataset a Detector reads from.
type RecordSource interface {
	Schema() model.Schema
	Records() iter.Seq[model.Record]
	TimeDelta(t1, t2 int64) (int64, error)
}

// Detector finds consecutive-bar close moves above a percent threshold.
// A Detector is not safe for concurrent use; each Analyze pass owns its window.
type Detector struct {
	src        RecordSource
	closeTime  string
	closePrice string
}

// New creates a Detector over src. Both close columns must be set before Analyze.
func New(src RecordSource) *Detector {
	return &Detector{src: src}
}

// SetCloseTimeColumn names the column holding bar close times in Unix ms.
func (d *Detector) SetCloseTimeColumn(name string) error {
	if _, ok := d.src.Schema().Index(name); !ok {
		return fmt.Errorf("%w: close time column %q not in header", ErrConfiguration, name)
	}
	d.closeTime = name
	return nil
}

// SetClosePriceColumn names the column holding bar close prices.
func (d *Detector) SetClosePriceColumn(name string) error {
	if _, ok := d.src.Schema().Index(name); !ok {
		return fmt.Errorf("%w: close price column %q not in header", ErrConfiguration, name)
	}
	d.closePrice = name
	return nil
}

// CloseTimeColumn returns the configured close time column.
func (d *Detector) CloseTimeColumn() string { return d.closeTime }

// ClosePriceColumn returns the configured close price column.
func (d *Detector) ClosePriceColumn() string { return d.closePrice }

// Analyze validates the configuration and returns the lazy sequence of
// change events whose magnitude is strictly above percentThreshold.
// expectedIntervalMillis must be positive; hourly bars use DefaultIntervalMillis.
//
// The sequence pulls one record at a time. On a gap, a timestamp outside
// the Unix ms range or a degenerate computation it yields a single error
// and stops. Stopping the range loop early leaves the rest of the series
// unread.
func (d *Detector) Analyze(percentThreshold float64, expectedIntervalMillis int64) (iter.Seq2[model.ChangeEvent, error], error) {
	if d.closeTime == "" || d.closePrice == "" {
		return nil, fmt.Errorf("%w: close time and close price columns must be set", ErrConfiguration)
	}
	if math.IsNaN(percentThreshold) || percentThreshold < 0 || percentThreshold > 100 {
		return nil, fmt.Errorf("%w: percent threshold %v not in [0, 100]", ErrInvalidArgument, percentThreshold)
	}
	if expectedIntervalMillis <= 0 {
		return nil, fmt.Errorf("%w: interval %d ms is not positive", ErrInvalidArgument, expectedIntervalMillis)
	}

	schema := d.src.Schema()
	timeIdx, ok := schema.Index(d.closeTime)
	if !ok {
		return nil, fmt.Errorf("%w: close time column %q not in header", ErrConfiguration, d.closeTime)
	}
	priceIdx, ok := schema.Index(d.closePrice)
	if !ok {
		return nil, fmt.Errorf("%w: close price column %q not in header", ErrConfiguration, d.closePrice)
	}

	p := pass{
		src:       d.src,
		timeIdx:   timeIdx,
		priceIdx:  priceIdx,
		threshold: percentThreshold,
		interval:  expectedIntervalMillis,
	}
	return p.run, nil
}

// pass is one configured detection run with resolved column indices.
type pass struct {
	src       RecordSource
	timeIdx   int
	priceIdx  int
	threshold float64
	interval  int64
}

func (p pass) run(yield func(model.ChangeEvent, error) bool) {
	var w pairWindow
	for r := range p.src.Records() {
		if !w.push(r) {
			continue
		}
		ev, hit, err := p.evaluate(w.previous, w.current)
		if err != nil {
			yield(model.ChangeEvent{}, err)
			return
		}
		if hit && !yield(ev, nil) {
			return
		}
		w.slide()
	}
}

func (p pass) evaluate(prev, cur model.Record) (model.ChangeEvent, bool, error) {
	var from, to model.PricePoint
	var err error
	if from.CloseTime, err = p.closeTime(prev); err != nil {
		return model.ChangeEvent{}, false, err
	}
	if to.CloseTime, err = p.closeTime(cur); err != nil {
		return model.ChangeEvent{}, false, err
	}

	dt, err := p.src.TimeDelta(from.CloseTime, to.CloseTime)
	if err != nil {
		return model.ChangeEvent{}, false, err
	}
	if dt != p.interval {
		return model.ChangeEvent{}, false, fmt.Errorf("%w: bars at %d and %d are %d ms apart, expected %d",
			ErrGap, from.CloseTime, to.CloseTime, dt, p.interval)
	}

	if from.Close, err = p.closePrice(prev); err != nil {
		return model.ChangeEvent{}, false, err
	}
	if to.Close, err = p.closePrice(cur); err != nil {
		return model.ChangeEvent{}, false, err
	}

	pct, err := calculator.PercentChange(from.Close, to.Close)
	if errors.Is(err, calculator.ErrZeroBase) {
		return model.ChangeEvent{}, false, fmt.Errorf("%w: close at %d is zero", ErrComputation, from.CloseTime)
	}
	if err != nil {
		return model.ChangeEvent{}, false, fmt.Errorf("%w: %v", ErrComputation, err)
	}
	magnitude := pct.Abs()
	if !calculator.Exceeds(magnitude, p.threshold) {
		return model.ChangeEvent{}, false, nil
	}

	m, _ := magnitude.Float64()
	return model.ChangeEvent{
		Magnitude: m,
		Percent:   pct,
		Previous:  prev,
		Current:   cur,
		From:      from,
		To:        to,
	}, true, nil
}

func (p pass) closeTime(r model.Record) (int64, error) {
	ts, err := r.Int64(p.timeIdx)
	if err != nil {
		return 0, fmt.Errorf("%w: close time: %v", ErrComputation, err)
	}
	return ts, nil
}

func (p pass) closePrice(r model.Record) (decimal.Decimal, error) {
	price, err := r.Decimal(p.priceIdx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: close price: %v", ErrComputation, err)
	}
	return price, nil
}
