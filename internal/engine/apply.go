package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
)

// Apply applies every in-place changeset of plan. Results that require a
// full refresh are skipped and returned; recreating a relation is left to
// the materialization that owns it.
func (p *Planner) Apply(ctx context.Context, plan *Plan) ([]Result, error) {
	if p.adapter == nil {
		return nil, fmt.Errorf("apply requires a connected adapter")
	}
	logger := p.logger.With(slog.String("run_id", plan.RunID))

	var skipped []Result
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, r := range plan.Changed() {
		if r.Changeset.RequiresFullRefresh() {
			logger.Warn("skipping relation that requires a full refresh", slog.String("relation", r.Relation.Render()))
			skipped = append(skipped, r)
			continue
		}
		g.Go(func() error {
			if err := adapter.Apply(gctx, p.adapter, r.Relation, r.Changeset); err != nil {
				return err
			}
			logger.Info("applied changes", slog.String("relation", r.Relation.Render()), slog.Int("changes", len(r.Changeset.Changes)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return skipped, err
	}
	return skipped, nil
}
