package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ParquetLoader reads flat Parquet files. Leaf column paths become column names.
type ParquetLoader struct{}

func (ParquetLoader) Name() string { return "parquet" }

func (ParquetLoader) Load(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open parquet: %v", ErrFormat, err)
	}

	paths := pf.Schema().Columns()
	columns := make([]string, len(paths))
	for i, p := range paths {
		columns[i] = strings.Join(p, ".")
	}

	var rows [][]string
	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rr := rg.Rows()
		for {
			n, err := rr.ReadRows(buf)
			for _, row := range buf[:n] {
				rows = append(rows, parquetRecord(row, len(columns)))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rr.Close()
				return nil, nil, fmt.Errorf("%w: read parquet rows: %v", ErrFormat, err)
			}
			if n == 0 {
				break
			}
		}
		rr.Close()
	}
	return columns, rows, nil
}

func parquetRecord(row parquet.Row, width int) []string {
	rec := make([]string, width)
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= width || v.IsNull() {
			continue
		}
		rec[c] = parquetValue(v)
	}
	return rec
}

func parquetValue(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return fmt.Sprint(v)
	}
}
