package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"MoveSentinel/internal/model"
)

// TimeLayout is used for every close time shown to people.
const TimeLayout = "2006-01-02 15:04:05"

// Summary describes the scan a report was produced from.
type Summary struct {
	Source    string
	Bars      int
	Dropped   int
	Threshold float64
	Interval  time.Duration
	Limit     int
}

// FormatCloseTime renders a Unix millisecond close time in loc.
func FormatCloseTime(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(TimeLayout)
}

// FormatTable renders one line per event: magnitude, start close time,
// start close, end close time, end close.
func FormatTable(events []model.ChangeEvent, loc *time.Location) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(fmt.Sprintf("%-10.2f%% %-19s %-12s %-19s %-12s\n",
			ev.Magnitude,
			FormatCloseTime(ev.From.CloseTime, loc), ev.From.Close.String(),
			FormatCloseTime(ev.To.CloseTime, loc), ev.To.Close.String()))
	}
	return b.String()
}

// FormatTelegramReport formats a scan summary and its events as a Telegram HTML message.
func FormatTelegramReport(s Summary, events []model.ChangeEvent, loc *time.Location) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>MoveSentinel</b> | %s\n\n", html.EscapeString(s.Source)))
	b.WriteString(fmt.Sprintf("Bars: %s", humanize.Comma(int64(s.Bars))))
	if s.Dropped > 0 {
		b.WriteString(fmt.Sprintf(" (%s incomplete rows dropped)", humanize.Comma(int64(s.Dropped))))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Threshold: %.2f%% per %s\n\n", s.Threshold, s.Interval))

	if len(events) == 0 {
		b.WriteString("No moves above threshold.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("<b>First %d moves", len(events)))
	if s.Limit > 0 && len(events) >= s.Limit {
		b.WriteString(" (limit reached)")
	}
	b.WriteString(":</b>\n")
	for _, ev := range events {
		dir := "▼"
		if ev.Percent.IsNegative() {
			dir = "▲"
		}
		b.WriteString(fmt.Sprintf("%s %.2f%%  %s %s → %s %s\n",
			dir, ev.Magnitude,
			FormatCloseTime(ev.From.CloseTime, loc), ev.From.Close.String(),
			FormatCloseTime(ev.To.CloseTime, loc), ev.To.Close.String()))
	}
	return b.String()
}

// FormatFailure formats a failed scan for Telegram.
func FormatFailure(source string, err error) string {
	return fmt.Sprintf("❌ <b>MoveSentinel</b> | %s\n\nscan failed: %s",
		html.EscapeString(source), html.EscapeString(err.Error()))
}
