package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"google.golang.org/api/iterator"
)

// catalogColumns are the columns of ListRelations results.
func catalogColumns() []string {
	return []string{catalog.ColumnDatabase, catalog.ColumnSchema, catalog.ColumnName, "table_type"}
}

// ListRelations lists the relations in a dataset as a catalog table.
func (a *Adapter) ListRelations(ctx context.Context, database, schema string) (*catalog.Table, error) {
	if a.client == nil {
		return nil, fmt.Errorf("bigquery client not connected")
	}

	out := &catalog.Table{Columns: catalogColumns()}
	it := a.dataset(database, schema).Tables(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables in %s.%s: %w", database, schema, err)
		}
		md, err := t.Metadata(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s.%s.%s: %w", t.ProjectID, t.DatasetID, t.TableID, err)
		}
		out.Rows = append(out.Rows, CatalogRow(t, md))
	}
	return out, nil
}

// CatalogRow converts a listed table into a catalog row.
func CatalogRow(t *bigquery.Table, md *bigquery.TableMetadata) []any {
	return []any{t.ProjectID, t.DatasetID, t.TableID, tableType(md.Type)}
}
