package source

import (
	"path/filepath"
	"strings"
)

// Loader reads a tabular file into a header and raw rows.
// Rows may contain missing fields; the Source drops them.
type Loader interface {
	Load(path string) (columns []string, rows [][]string, err error)
	Name() string
}

// missingValues holds the spellings read as an empty field.
var missingValues = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
	"None": {},
}

func isMissing(v string) bool {
	_, ok := missingValues[strings.TrimSpace(v)]
	return ok
}

// NewLoader picks a Loader by file extension. Returns nil if the
// extension is not a supported tabular format.
func NewLoader(path, table string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVLoader{}
	case ".parquet":
		return ParquetLoader{}
	case ".db", ".sqlite", ".sqlite3":
		return SQLiteLoader{Table: table}
	default:
		return nil
	}
}
