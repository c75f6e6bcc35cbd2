package snowflake

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/catalog"
)

const columnTableType = "table_type"

// ListRelations lists the tables and views of a schema as a catalog table.
func (a *Adapter) ListRelations(ctx context.Context, database, schema string) (*catalog.Table, error) {
	rows, err := a.QueryMaps(ctx, listQuery(database, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to list relations in %s.%s: %w", database, schema, err)
	}

	cols := []string{catalog.ColumnDatabase, catalog.ColumnSchema, catalog.ColumnName, columnTableType}
	out := &catalog.Table{Columns: cols, Rows: make([][]any, 0, len(rows))}
	for _, row := range rows {
		values := make([]any, len(cols))
		for i, c := range cols {
			values[i] = row[c]
		}
		out.Rows = append(out.Rows, values)
	}
	return out, nil
}

func listQuery(database, schema string) string {
	from := "information_schema.tables"
	if database != "" {
		from = database + "." + from
	}
	return fmt.Sprintf(`select table_catalog as %s, table_schema as %s, table_name as %s, %s
from %s
where upper(table_schema) = upper('%s')
order by table_name`,
		catalog.ColumnDatabase, catalog.ColumnSchema, catalog.ColumnName, columnTableType,
		from, strings.ReplaceAll(schema, "'", "''"))
}
