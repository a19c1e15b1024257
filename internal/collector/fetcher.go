package collector

import "context"

// HourMillis is the length of one hourly bar in milliseconds.
const HourMillis int64 = 60 * 60 * 1000

// Bar is one hourly OHLCV bar. OpenTime is Unix milliseconds.
type Bar struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// CloseTime is the last millisecond covered by the bar.
func (b Bar) CloseTime() int64 { return b.OpenTime + HourMillis - 1 }

// Fetcher downloads a completed history of hourly bars.
type Fetcher interface {
	FetchHourlyBars(ctx context.Context, symbol, rng string) ([]Bar, error)
	Name() string
}
