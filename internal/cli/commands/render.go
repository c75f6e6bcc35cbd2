package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapdw/internal/cli/output"
	"github.com/leapstack-labs/leapdw/internal/engine"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
)

// planView is the structured form of a plan for JSON and YAML output.
type planView struct {
	RunID     string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Relations []relationView `json:"relations" yaml:"relations"`
}

type relationView struct {
	Relation    string       `json:"relation" yaml:"relation"`
	Action      string       `json:"action" yaml:"action"`
	FullRefresh bool         `json:"full_refresh" yaml:"full_refresh"`
	Changes     []changeView `json:"changes" yaml:"changes"`
}

type changeView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Action string `json:"action" yaml:"action"`
	Change string `json:"change" yaml:"change"`
}

func newRelationView(name string, cs *changeset.Changeset) relationView {
	v := relationView{
		Relation:    name,
		Action:      string(cs.Action),
		FullRefresh: cs.RequiresFullRefresh(),
		Changes:     make([]changeView, 0, len(cs.Changes)),
	}
	for _, c := range cs.Changes {
		v.Changes = append(v.Changes, changeView{
			Kind:   string(c.Kind),
			Action: string(c.Action),
			Change: c.String(),
		})
	}
	return v
}

func newPlanView(plan *engine.Plan) planView {
	v := planView{RunID: plan.RunID, Relations: make([]relationView, 0, len(plan.Results))}
	for _, res := range plan.Results {
		v.Relations = append(v.Relations, newRelationView(res.Relation.Render(), res.Changeset))
	}
	return v
}

// renderPlan writes v in the renderer's mode.
func renderPlan(r *output.Renderer, v planView) error {
	switch r.Mode() {
	case output.ModeJSON:
		return r.JSON(v)
	case output.ModeYAML:
		return r.YAML(v)
	}

	changed := 0
	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Relation", "Action", "Kind", "Change"})

	for _, rel := range v.Relations {
		if len(rel.Changes) == 0 {
			continue
		}
		changed++
		for _, c := range rel.Changes {
			change := c.Change
			if rel.FullRefresh && r.Mode() == output.ModeText {
				change = r.Styles().Warning.Render(change)
			}
			t.AppendRow(table.Row{rel.Relation, rel.Action, c.Kind, change})
		}
	}

	if changed == 0 {
		r.Println(r.Styles().Success.Render(fmt.Sprintf("No changes (%d relations up to date)", len(v.Relations))))
		return nil
	}

	if r.Mode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	r.Printf("%d of %d relations change\n", changed, len(v.Relations))
	return nil
}
