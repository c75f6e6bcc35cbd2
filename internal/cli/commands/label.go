package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdw/internal/cli/output"
	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
)

type labelView struct {
	Input string `json:"input" yaml:"input"`
	Label string `json:"label" yaml:"label"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewLabelCommand creates the label command.
func NewLabelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "label <text>...",
		Short: "Sanitize text into warehouse label values",
		Long: `Sanitize each argument into a label value (lower case, runs of other
characters replaced by "_") and check it against the target's label length
limit. Labels are never truncated; over-long values are reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			limit := catalog.DefaultLabelLengthLimit
			if cfg.Target != nil {
				limit = cfg.Target.LabelLimit()
			}

			views := make([]labelView, 0, len(args))
			invalid := 0
			for _, in := range args {
				v := labelView{Input: in, Label: catalog.SanitizeLabel(in)}
				if err := catalog.ValidateLabel("label", v.Label, limit); err != nil {
					v.Error = err.Error()
					invalid++
				}
				views = append(views, v)
			}

			if err := renderLabels(newRenderer(cmd), views); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d labels are invalid", invalid, len(args))
			}
			return nil
		},
	}
}

func renderLabels(r *output.Renderer, views []labelView) error {
	switch r.Mode() {
	case output.ModeJSON:
		return r.JSON(views)
	case output.ModeYAML:
		return r.YAML(views)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Input", "Label", "Status"})
	for _, v := range views {
		status := r.Styles().Success.Render("ok")
		if v.Error != "" {
			status = r.Styles().Error.Render(v.Error)
		}
		t.AppendRow(table.Row{v.Input, v.Label, status})
	}
	if r.Mode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	return nil
}
