package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// Target is a declared relation and its desired configuration.
type Target struct {
	Relation relation.Relation
	// Desired is the user-supplied configuration mapping.
	Desired map[string]any
	// Source names where the declaration came from, for error messages.
	Source string
}

// Result is the planned outcome for one target.
type Result struct {
	Relation relation.Relation
	// Existing is nil when the relation does not exist.
	Existing  *relconfig.RelationConfig
	Desired   *relconfig.RelationConfig
	Changeset *changeset.Changeset
}

// Plan is the outcome of one planning run.
type Plan struct {
	RunID   string
	Results []Result
}

// Changed returns the results whose changeset is not empty.
func (p *Plan) Changed() []Result {
	var out []Result
	for _, r := range p.Results {
		if r.Changeset.HasChanges() {
			out = append(out, r)
		}
	}
	return out
}

// Plan describes every target and diffs it against its declaration.
// Results are returned in input order. The first failure cancels the run.
func (p *Planner) Plan(ctx context.Context, targets []Target) (*Plan, error) {
	if p.adapter == nil {
		return nil, fmt.Errorf("plan requires a connected adapter")
	}

	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))
	logger.Debug("planning relations", slog.Int("count", len(targets)), slog.Int("concurrency", p.concurrency))

	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, t := range targets {
		g.Go(func() error {
			res, err := p.planTarget(gctx, logger, t)
			if err != nil {
				name := t.Relation.Render()
				if t.Source != "" {
					name = fmt.Sprintf("%s (%s)", name, t.Source)
				}
				return fmt.Errorf("plan %s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := &Plan{RunID: runID, Results: results}
	logger.Info("plan complete", slog.Int("relations", len(results)), slog.Int("changed", len(plan.Changed())))
	return plan, nil
}

func (p *Planner) planTarget(ctx context.Context, logger *slog.Logger, t Target) (Result, error) {
	desired, err := p.parser.FromUserConfig(t.Desired)
	if err != nil {
		return Result{}, err
	}

	rel := t.Relation
	if rel.Type == "" {
		rel = rel.WithType(desired.Type)
	}

	raw, err := p.adapter.DescribeRelation(ctx, rel)
	var existing *relconfig.RelationConfig
	switch {
	case errors.Is(err, core.ErrRelationNotFound):
		logger.Debug("relation not found", slog.String("relation", rel.Render()))
	case err != nil:
		return Result{}, fmt.Errorf("describe: %w", err)
	default:
		existing, err = relconfig.FromWarehouseMetadata(raw)
		if err != nil {
			return Result{}, fmt.Errorf("read warehouse metadata: %w", err)
		}
	}

	cs := changeset.Build(existing, desired)
	logger.Debug("planned relation",
		slog.String("relation", rel.Render()),
		slog.String("action", string(cs.Action)),
		slog.Int("changes", len(cs.Changes)),
		slog.Bool("full_refresh", cs.RequiresFullRefresh()))

	return Result{Relation: rel, Existing: existing, Desired: desired, Changeset: cs}, nil
}

// PlanOne diffs an observed warehouse mapping against a declared
// configuration without touching the warehouse. A nil observed mapping
// means the relation does not exist.
func (p *Planner) PlanOne(observed, desired map[string]any) (*changeset.Changeset, error) {
	want, err := p.parser.FromUserConfig(desired)
	if err != nil {
		return nil, fmt.Errorf("desired config: %w", err)
	}
	var have *relconfig.RelationConfig
	if observed != nil {
		have, err = relconfig.FromWarehouseMetadata(observed)
		if err != nil {
			return nil, fmt.Errorf("observed config: %w", err)
		}
	}
	return changeset.Build(have, want), nil
}
