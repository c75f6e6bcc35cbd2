package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Catalog column names used for schema filtering.
const (
	ColumnDatabase = "table_database"
	ColumnSchema   = "table_schema"
	ColumnName     = "table_name"
)

// textColumnSuffixes mark columns that are always coerced to text regardless of their content, so a
// schema named "1234" is compared as a string rather than a number.
var textColumnSuffixes = []string{"_database", "_schema", "_name", "_type", "_comment", "_owner"}

// Table is a tabular catalog listing.
type Table struct {
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of column name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns row i of column name, or nil when the column is absent.
func (t *Table) Value(i int, name string) any {
	idx := t.ColumnIndex(name)
	if idx < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return nil
	}
	return t.Rows[i][idx]
}

// SchemaKey identifies a (database, schema) pair.
type SchemaKey struct {
	Database string
	Schema   string
}

func (k SchemaKey) normalized() SchemaKey {
	return SchemaKey{Database: strings.ToLower(k.Database), Schema: strings.ToLower(k.Schema)}
}

// FilterTable coerces the catalog columns and keeps only rows whose
// (database, schema) pair is in usedSchemas. Both sides are compared
// lower-cased since the warehouse may return identifiers in a different
// case than the project declares.
func FilterTable(t *Table, usedSchemas []SchemaKey) (*Table, error) {
	dbIdx := t.ColumnIndex(ColumnDatabase)
	schemaIdx := t.ColumnIndex(ColumnSchema)
	if dbIdx < 0 || schemaIdx < 0 {
		return nil, fmt.Errorf("catalog table is missing %s or %s column", ColumnDatabase, ColumnSchema)
	}

	used := make(map[SchemaKey]struct{}, len(usedSchemas))
	for _, k := range usedSchemas {
		used[k.normalized()] = struct{}{}
	}

	coerced, err := Coerce(t)
	if err != nil {
		return nil, err
	}

	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range coerced.Rows {
		key := SchemaKey{
			Database: cast.ToString(row[dbIdx]),
			Schema:   cast.ToString(row[schemaIdx]),
		}
		if _, ok := used[key.normalized()]; ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Coerce converts identifier-like columns to text and every other non-nil
// value to a decimal when it parses as a number. Values that are neither are
// kept as text.
func Coerce(t *Table) (*Table, error) {
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([][]any, 0, len(t.Rows))}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("catalog row %d has %d values, expected %d", i, len(row), len(t.Columns))
		}
		coerced := make([]any, len(row))
		for j, v := range row {
			c, err := coerceValue(t.Columns[j], v)
			if err != nil {
				return nil, fmt.Errorf("catalog row %d column %s: %w", i, t.Columns[j], err)
			}
			coerced[j] = c
		}
		out.Rows = append(out.Rows, coerced)
	}
	return out, nil
}

func coerceValue(column string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if isTextColumn(column) {
		return cast.ToStringE(v)
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case bool:
		return n, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return d, nil
	}
	return s, nil
}

func isTextColumn(column string) bool {
	for _, suffix := range textColumnSuffixes {
		if strings.HasSuffix(column, suffix) {
			return true
		}
	}
	return false
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
