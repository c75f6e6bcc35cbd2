// Package engine plans and applies relation configuration changes.
//
// A Planner describes each declared relation through an adapter, parses both
// the observed and the declared configuration and diffs them into a
// changeset. Planning is read-only; Apply executes the in-place changesets.
package engine

import (
	"log/slog"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// DefaultConcurrency bounds how many relations are described at once when
// Config.Concurrency is not set.
const DefaultConcurrency = 4

// Config holds planner configuration.
type Config struct {
	// Adapter is the connected warehouse adapter. It may be nil for offline
	// planning with PlanOne.
	Adapter adapter.Adapter
	// Parser validates declared configurations.
	Parser relconfig.Parser
	// Concurrency bounds parallel DescribeRelation calls.
	Concurrency int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Planner builds changesets for declared relations.
type Planner struct {
	adapter     adapter.Adapter
	parser      relconfig.Parser
	concurrency int
	logger      *slog.Logger
}

// New creates a planner.
func New(cfg Config) *Planner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Planner{
		adapter:     cfg.Adapter,
		parser:      cfg.Parser,
		concurrency: concurrency,
		logger:      logger,
	}
}
