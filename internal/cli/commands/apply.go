package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdw/internal/config"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply in-place changes to the warehouse",
		Long: `Plan every declaration under relations_dir and apply the changes that
can be made in place (labels, options, clustering, dynamic table settings).

Relations that need a full refresh are reported and left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)
			r := newRenderer(cmd)

			p, plan, closeFn, err := planWarehouse(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := renderPlan(r, newPlanView(plan)); err != nil {
				return err
			}

			skipped, err := p.Apply(ctx, plan)
			for _, res := range skipped {
				r.Warnf("skipped %s: requires a full refresh", res.Relation.Render())
			}
			return err
		},
	}
}
