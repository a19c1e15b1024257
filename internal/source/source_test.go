package source

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoveSentinel/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const hourlyCSV = `open_time,open,high,low,close,volume,close_time
1700000000000,100,101,99,100.5,12,1700003599999
1700003600000,100.5,102,100,101.2,10,1700007199999
1700007200000,101.2,103,101,,9,1700010799999
1700010800000,101.2,103,101,102.8,9,1700014399999
`

func TestOpen_CSV(t *testing.T) {
	path := writeFile(t, "btc-1h.csv", hourlyCSV)

	src, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "csv", src.Format())
	assert.Equal(t, []string{"open_time", "open", "high", "low", "close", "volume", "close_time"}, src.Schema().Columns())
	assert.Equal(t, 3, src.Len())
	assert.Equal(t, 1, src.Dropped())

	var closes []string
	for r := range src.Records() {
		closes = append(closes, r.Value(4))
	}
	assert.Equal(t, []string{"100.5", "101.2", "102.8"}, closes)
}

func TestOpen_RecordsAreRestartable(t *testing.T) {
	src, err := Open(writeFile(t, "bars.csv", hourlyCSV))
	require.NoError(t, err)

	first := slices.Collect(src.Records())
	second := slices.Collect(src.Records())
	assert.Equal(t, first, second)

	// abandon early, then restart from the top
	for range src.Records() {
		break
	}
	var n int
	for range src.Records() {
		n++
	}
	assert.Equal(t, src.Len(), n)
}

func TestOpen_DropsMissingSpellings(t *testing.T) {
	csv := "close_time,close\n" +
		"1700003599999,NaN\n" +
		"1700007199999,null\n" +
		"1700010799999,N/A\n" +
		"1700014399999\n" +
		"1700017999999,  \n" +
		"1700021599999,42\n"
	src, err := Open(writeFile(t, "bars.csv", csv))
	require.NoError(t, err)
	assert.Equal(t, 1, src.Len())
	assert.Equal(t, 5, src.Dropped())
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(dir, "nope.csv") },
			want: ErrNotFound,
		},
		{
			name: "directory",
			path: func(t *testing.T) string {
				p := filepath.Join(dir, "folder.csv")
				require.NoError(t, os.Mkdir(p, 0o755))
				return p
			},
			want: ErrNotFound,
		},
		{
			name: "wrong extension",
			path: func(t *testing.T) string { return writeFile(t, "bars.txt", hourlyCSV) },
			want: ErrFormat,
		},
		{
			name: "zero bytes",
			path: func(t *testing.T) string { return writeFile(t, "empty.csv", "") },
			want: ErrEmptyInput,
		},
		{
			name: "header only",
			path: func(t *testing.T) string { return writeFile(t, "header.csv", "close_time,close\n") },
			want: ErrEmptyInput,
		},
		{
			name: "every row incomplete",
			path: func(t *testing.T) string { return writeFile(t, "holes.csv", "close_time,close\n1700003599999,\n,5\n") },
			want: ErrEmptyInput,
		},
		{
			name: "duplicate header",
			path: func(t *testing.T) string { return writeFile(t, "dup.csv", "close,close\n1,2\n") },
			want: ErrFormat,
		},
		{
			name: "too many fields",
			path: func(t *testing.T) string { return writeFile(t, "wide.csv", "close_time,close\n1,2,3\n") },
			want: ErrFormat,
		},
		{
			name: "unterminated quote",
			path: func(t *testing.T) string { return writeFile(t, "quote.csv", "close_time,close\n\"1,2\n") },
			want: ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path(t))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpen_Unreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file mode bits")
	}
	path := writeFile(t, "locked.csv", hourlyCSV)
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrPermission)
}

func TestOpen_ExtensionIsCaseInsensitive(t *testing.T) {
	src, err := Open(writeFile(t, "BARS.CSV", hourlyCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())
}

type stubLoader struct {
	columns []string
	rows    [][]string
}

func (s stubLoader) Name() string { return "stub" }

func (s stubLoader) Load(string) ([]string, [][]string, error) { return s.columns, s.rows, nil }

func TestOpen_WithLoader(t *testing.T) {
	path := writeFile(t, "anything.bin", "x")
	src, err := Open(path, WithLoader(stubLoader{
		columns: []string{"t", "c"},
		rows:    [][]string{{"1700003599999", "1"}, {"1700007199999", ""}},
	}))
	require.NoError(t, err)
	assert.Equal(t, "stub", src.Format())
	assert.Equal(t, 1, src.Len())
}

func TestTimeDelta(t *testing.T) {
	tests := []struct {
		name   string
		t1, t2 int64
		want   int64
		err    error
	}{
		{"forward hour", 1700003599999, 1700007199999, 3_600_000, nil},
		{"backward hour", 1700007199999, 1700003599999, 3_600_000, nil},
		{"lower bound", MinUnixMillis, MinUnixMillis, 0, nil},
		{"upper bound", MaxUnixMillis, MinUnixMillis, MaxUnixMillis - MinUnixMillis, nil},
		{"seconds precision", 1_700_000_000, 1_700_003_600, 0, ErrNotUnixTime},
		{"second arg out of range", 1700003599999, MaxUnixMillis + 1, 0, ErrNotUnixTime},
		{"negative", -1, 1700003599999, 0, ErrNotUnixTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeDelta(tt.t1, tt.t2)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceTimeDelta(t *testing.T) {
	src, err := Open(writeFile(t, "bars.csv", hourlyCSV))
	require.NoError(t, err)

	_, err = src.TimeDelta(1_700_000_000, 1700003599999)
	assert.ErrorIs(t, err, ErrNotUnixTime)
}

func TestRecordAccessors(t *testing.T) {
	r := model.NewRecord([]string{"1.7000036e12", "101.25", "abc"})

	ts, err := r.Int64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_003_600_000), ts)

	price, err := r.Decimal(1)
	require.NoError(t, err)
	assert.Equal(t, "101.25", price.String())

	_, err = r.Decimal(2)
	assert.Error(t, err)
	_, err = r.Int64(1)
	assert.Error(t, err)
}
