package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Schema is the ordered set of column names discovered when a dataset is loaded.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema builds a Schema. Column names must be unique.
func NewSchema(columns []string) (Schema, error) {
	s := Schema{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := s.index[c]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", c)
		}
		s.columns[i] = c
		s.index[c] = i
	}
	return s, nil
}

// Columns returns a copy of the column names in load order.
func (s Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Index resolves a column name to its position.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Record is one bar: a value per schema column, in schema order.
type Record struct {
	values []string
}

// NewRecord copies values into an immutable Record.
func NewRecord(values []string) Record {
	v := make([]string, len(values))
	copy(v, values)
	return Record{values: v}
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.values) }

// Value returns the raw text of field i.
func (r Record) Value(i int) string { return r.values[i] }

// Values returns a copy of all fields.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Int64 parses field i as an integer. Integral floats such as "1.7e12" are
// accepted when they fit in an int64; larger or non-finite values are errors.
func (r Record) Int64(i int) (int64, error) {
	s := strings.TrimSpace(r.values[i])
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q as integer: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("parse %q as integer: not a whole number", s)
	}
	if f < minInt64Float || f >= maxInt64Float {
		return 0, fmt.Errorf("parse %q as integer: out of int64 range", s)
	}
	return int64(f), nil
}

// Exact float64 bounds of int64: -2^63 and 2^63.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

// Decimal parses field i as an exact decimal number.
func (r Record) Decimal(i int) (decimal.Decimal, error) {
	s := strings.TrimSpace(r.values[i])
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q as number: %w", s, err)
	}
	return d, nil
}
