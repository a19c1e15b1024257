package source

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTable is the table read from SQLite files when none is configured.
const DefaultTable = "ohlc"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteLoader reads every row of one table, in storage order.
type SQLiteLoader struct {
	Table string
}

func (SQLiteLoader) Name() string { return "sqlite" }

func (l SQLiteLoader) Load(path string) ([]string, [][]string, error) {
	table := l.Table
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, nil, fmt.Errorf("%w: invalid table name %q", ErrFormat, table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rs, err := db.Query(`SELECT * FROM "` + table + `"`)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query table %s: %v", ErrFormat, table, err)
	}
	defer rs.Close()

	columns, err := rs.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: columns: %v", ErrFormat, err)
	}

	var rows [][]string
	vals := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("%w: scan row: %v", ErrFormat, err)
		}
		rec := make([]string, len(columns))
		for i, v := range vals {
			rec[i] = sqliteValue(v)
		}
		rows = append(rows, rec)
	}
	if err := rs.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: iterate rows: %v", ErrFormat, err)
	}
	return columns, rows, nil
}

func sqliteValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10)
	default:
		return fmt.Sprint(x)
	}
}
