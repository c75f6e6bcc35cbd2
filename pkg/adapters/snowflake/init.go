// Package snowflake provides a Snowflake warehouse adapter for leapdw.
//
// This file registers the Snowflake adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdw/pkg/adapters/snowflake"
package snowflake

import (
	"log/slog"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

func init() {
	adapter.Register("snowflake", adapter.Registration{
		Factory:       func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		Policy:        relation.SnowflakePolicy(),
		DefaultSchema: "PUBLIC",
	})
}

var (
	_ adapter.Adapter        = (*Adapter)(nil)
	_ adapter.RelationLister = (*Adapter)(nil)
)
