package source

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"

	"MoveSentinel/internal/model"
)

// Source is a loaded, validated tabular dataset. It is read-only after Open
// and may back any number of sequential analysis passes.
type Source struct {
	path    string
	loader  Loader
	schema  model.Schema
	records []model.Record
	dropped int
}

type options struct {
	table  string
	loader Loader
}

// Option customises Open.
type Option func(*options)

// WithTable sets the table read from SQLite files.
func WithTable(name string) Option {
	return func(o *options) { o.table = name }
}

// WithLoader bypasses extension detection and uses l to read the file.
func WithLoader(l Loader) Option {
	return func(o *options) { o.loader = l }
}

// Open checks that path exists, is a supported tabular format, is readable
// and holds at least one complete row, then loads it.
func Open(path string, opts ...Option) (*Source, error) {
	o := options{table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermission, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	loader := o.loader
	if loader == nil {
		loader = NewLoader(path, o.table)
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: %s is not a csv, parquet or sqlite file", ErrFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermission, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	f.Close()

	if st.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrEmptyInput, path)
	}

	columns, rows, err := loader.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermission, path)
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	schema, err := model.NewSchema(columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	s := &Source{path: path, loader: loader, schema: schema}
	for _, row := range rows {
		if !complete(row, schema.Len()) {
			s.dropped++
			continue
		}
		s.records = append(s.records, model.NewRecord(row))
	}
	if len(s.records) == 0 {
		return nil, fmt.Errorf("%w: %s has no complete rows", ErrEmptyInput, path)
	}
	return s, nil
}

func complete(row []string, width int) bool {
	if len(row) < width {
		return false
	}
	for _, v := range row {
		if isMissing(v) {
			return false
		}
	}
	return true
}

// Path returns the file the source was loaded from.
func (s *Source) Path() string { return s.path }

// Format returns the name of the loader that read the file.
func (s *Source) Format() string { return s.loader.Name() }

// Schema returns the column names in load order.
func (s *Source) Schema() model.Schema { return s.schema }

// Len returns the number of retained records.
func (s *Source) Len() int { return len(s.records) }

// Dropped returns how many rows were discarded for missing fields.
func (s *Source) Dropped() int { return s.dropped }

// Records yields the retained records in file order. Each call starts from
// the first record.
func (s *Source) Records() iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		for _, r := range s.records {
			if !yield(r) {
				return
			}
		}
	}
}

// TimeDelta returns |t2 - t1| for two validated Unix millisecond timestamps.
func (s *Source) TimeDelta(t1, t2 int64) (int64, error) {
	return TimeDelta(t1, t2)
}
