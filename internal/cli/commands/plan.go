package commands

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/internal/engine"
)

// PlanOptions holds options for the plan command.
type PlanOptions struct {
	Existing string
	Desired  string
	Name     string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes needed to reconcile relations",
		Long: `Compare declared relation configuration with the warehouse and list
the changes needed to reconcile them.

Without --desired every declaration under relations_dir is planned against
the configured target. With --desired a single declaration is planned
offline against the observed metadata in --existing (omit it to plan a
relation that does not exist yet).`,
		Example: `  leapdw plan
  leapdw plan --existing observed.yaml --desired orders.yaml -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Existing, "existing", "", "Observed warehouse metadata (YAML or JSON)")
	cmd.Flags().StringVar(&opts.Desired, "desired", "", "Declared relation config (YAML or JSON)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Relation name shown for offline plans (default: desired file name)")

	return cmd
}

func runPlan(cmd *cobra.Command, opts *PlanOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.GetLogger(ctx)
	r := newRenderer(cmd)

	if opts.Desired == "" {
		_, plan, closeFn, err := planWarehouse(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		return renderPlan(r, newPlanView(plan))
	}

	desired, err := readMapping(opts.Desired)
	if err != nil {
		return err
	}
	var observed map[string]any
	if opts.Existing != "" {
		if observed, err = readMapping(opts.Existing); err != nil {
			return err
		}
	}

	p := engine.New(engine.Config{Parser: newParser(cfg), Logger: logger})
	cs, err := p.PlanOne(observed, desired)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(opts.Desired), filepath.Ext(opts.Desired))
	}
	return renderPlan(r, planView{Relations: []relationView{newRelationView(name, cs)}})
}
