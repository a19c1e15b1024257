package source

import "fmt"

// Bounds of a plausible Unix timestamp in milliseconds. Second-precision
// values fall below MinUnixMillis.
const (
	MinUnixMillis int64 = 100_000_000_000
	MaxUnixMillis int64 = 20_000_000_000_000
)

// IsUnixMillis reports whether ts lies in [MinUnixMillis, MaxUnixMillis].
func IsUnixMillis(ts int64) bool {
	return ts >= MinUnixMillis && ts <= MaxUnixMillis
}

// TimeDelta returns |t2 - t1| for two Unix millisecond timestamps.
func TimeDelta(t1, t2 int64) (int64, error) {
	if !IsUnixMillis(t1) {
		return 0, fmt.Errorf("%w: %d", ErrNotUnixTime, t1)
	}
	if !IsUnixMillis(t2) {
		return 0, fmt.Errorf("%w: %d", ErrNotUnixTime, t2)
	}
	if t2 < t1 {
		return t1 - t2, nil
	}
	return t2 - t1, nil
}
