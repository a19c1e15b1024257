package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVLoader reads comma-separated files whose first row is the header.
type CSVLoader struct{}

func (CSVLoader) Name() string { return "csv" }

func (CSVLoader) Load(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %v", ErrFormat, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	// strip a UTF-8 BOM left by spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		if len(rec) > len(header) {
			return nil, nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d", ErrFormat, line, len(header), len(rec))
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}
