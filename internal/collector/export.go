package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVHeader is the column layout written by WriteCSV. It matches the
// default close_time and close columns read by the scanner.
var CSVHeader = []string{"open_time", "open", "high", "low", "close", "volume", "close_time"}

// WriteCSV writes bars in CSVHeader layout.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			strconv.FormatInt(b.OpenTime, 10),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
			strconv.FormatInt(b.CloseTime(), 10),
		}); err != nil {
			return fmt.Errorf("write bar %d: %w", b.OpenTime, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Gaps returns the open times after which one or more hourly bars are missing.
func Gaps(bars []Bar) []time.Time {
	var gaps []time.Time
	for i := 1; i < len(bars); i++ {
		if bars[i].OpenTime-bars[i-1].OpenTime != HourMillis {
			gaps = append(gaps, time.UnixMilli(bars[i-1].OpenTime))
		}
	}
	return gaps
}
