// Package bigquery provides a BigQuery warehouse adapter for leapdw.
//
// This file registers the BigQuery adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdw/pkg/adapters/bigquery"
package bigquery

import (
	"log/slog"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

func init() {
	adapter.Register("bigquery", adapter.Registration{
		Factory:          func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		Policy:           relation.BigQueryPolicy(),
		LabelLengthLimit: catalog.DefaultLabelLengthLimit,
	})
}

var (
	_ adapter.Adapter          = (*Adapter)(nil)
	_ adapter.ChangesetApplier = (*Adapter)(nil)
	_ adapter.RelationLister   = (*Adapter)(nil)
	_ adapter.TableCopier      = (*Adapter)(nil)
	_ adapter.AccessGranter    = (*Adapter)(nil)
)
