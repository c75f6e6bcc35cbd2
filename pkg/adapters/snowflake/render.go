package snowflake

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// RenderAlter renders the in-place changes of cs.
func (a *Adapter) RenderAlter(rel relation.Relation, cs *changeset.Changeset) ([]string, error) {
	return RenderAlter(rel, cs)
}

// RenderAlter renders cs as ALTER statements. Target lag and warehouse
// changes share one SET; clustering and comments get their own statement.
func RenderAlter(rel relation.Relation, cs *changeset.Changeset) ([]string, error) {
	if !cs.HasChanges() {
		return nil, nil
	}
	if cs.RequiresFullRefresh() {
		return nil, &adapter.FullRefreshError{Relation: rel.Render()}
	}

	prefix := fmt.Sprintf("alter %s %s", changeset.CreateKeyword(cs.Type), rel.Render())
	var sets, stmts []string
	for _, c := range cs.Changes {
		switch c.Kind {
		case changeset.KindTargetLag, changeset.KindWarehouse:
			sets = append(sets, c.Clause())
		case changeset.KindClustering:
			if len(c.Cluster) == 0 {
				stmts = append(stmts, prefix+" drop clustering key")
				continue
			}
			stmts = append(stmts, fmt.Sprintf("%s cluster by (%s)", prefix, strings.Join(c.Cluster, ", ")))
		case changeset.KindOptions:
			if c.Option.Name != changeset.OptionDescription {
				return nil, fmt.Errorf("snowflake does not support the %s option on %s", c.Option.Name, rel.Render())
			}
			if c.Action == changeset.ActionDrop {
				stmts = append(stmts, prefix+" unset comment")
				continue
			}
			stmts = append(stmts, fmt.Sprintf("%s set comment = '%s'", prefix, strings.ReplaceAll(c.Option.Value, "'", "''")))
		default:
			return nil, fmt.Errorf("snowflake does not support %s changes on %s", c.Kind, rel.Render())
		}
	}
	if len(sets) > 0 {
		stmts = append([]string{prefix + " set " + strings.Join(sets, " ")}, stmts...)
	}
	return stmts, nil
}
