package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/internal/engine"
)

// NewGrantCommand creates the grant command.
func NewGrantCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <view> <database.schema>",
		Short: "Authorize a view to read from a schema",
		Long: `Add the view to the access list of a schema (an authorized view in
BigQuery terms). Granting access the view already has is a no-op.`,
		Example: `  leapdw grant reporting.orders_v proj.raw`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)

			a, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			view, err := resolveRelation(args[0], cfg, a)
			if err != nil {
				return err
			}
			database, schema, err := splitSchema(args[1], cfg.Target.Database)
			if err != nil {
				return err
			}

			p := engine.New(engine.Config{Adapter: a, Logger: logger})
			if err := p.Grant(ctx, view, database, schema); err != nil {
				return err
			}
			r := newRenderer(cmd)
			r.Println(r.Styles().Success.Render(fmt.Sprintf("Granted %s access to %s.%s", view.Render(), database, schema)))
			return nil
		},
	}
}

// splitSchema reads "database.schema" or a bare schema in defaultDatabase.
func splitSchema(name, defaultDatabase string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	switch {
	case len(parts) == 1 && parts[0] != "" && defaultDatabase != "":
		return defaultDatabase, parts[0], nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("invalid schema %q (want database.schema)", name)
}
