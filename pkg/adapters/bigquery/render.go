package bigquery

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// RenderAlter renders the in-place changes of cs.
func (a *Adapter) RenderAlter(rel relation.Relation, cs *changeset.Changeset) ([]string, error) {
	return RenderAlter(rel, cs)
}

// RenderAlter renders cs as a single ALTER ... SET OPTIONS statement.
//
// SET OPTIONS(labels=...) replaces the whole label set, so any label change
// renders the complete desired set. Clustering has no DDL form and must be
// applied through the API.
func RenderAlter(rel relation.Relation, cs *changeset.Changeset) ([]string, error) {
	if !cs.HasChanges() {
		return nil, nil
	}
	if cs.RequiresFullRefresh() {
		return nil, &adapter.FullRefreshError{Relation: rel.Render()}
	}

	var opts []string
	labelsChanged := false
	for _, c := range cs.Changes {
		switch c.Kind {
		case changeset.KindLabels:
			labelsChanged = true
		case changeset.KindOptions:
			opts = append(opts, c.Clause())
		case changeset.KindClustering:
			return nil, fmt.Errorf("clustering of %s cannot be altered with DDL, apply it through the API", rel.Render())
		default:
			return nil, fmt.Errorf("bigquery does not support %s changes on %s", c.Kind, rel.Render())
		}
	}

	if labelsChanged {
		if cs.Desired == nil {
			return nil, fmt.Errorf("label changes on %s need the desired label set", rel.Render())
		}
		labels := relconfig.OptionsFor(cs.Desired).Labels
		opts = append([]string{"labels=" + relconfig.RenderLabels(labels)}, opts...)
	}

	stmt := fmt.Sprintf("alter %s %s set OPTIONS(%s)",
		changeset.CreateKeyword(cs.Type), rel.Render(), strings.Join(opts, ", "))
	return []string{stmt}, nil
}
