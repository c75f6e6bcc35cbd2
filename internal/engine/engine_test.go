package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// fakeAdapter serves observed metadata keyed by identifier.
type fakeAdapter struct {
	mu          sync.Mutex
	observed    map[string]map[string]any
	describeErr error
	executed    []string
}

func (f *fakeAdapter) Connect(context.Context, core.TargetConfig) error { return nil }
func (f *fakeAdapter) Close() error { return nil }
func (f *fakeAdapter) Policy() relation.Policy { return relation.BigQueryPolicy() }

func (f *fakeAdapter) Exec(_ context.Context, sql string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, sql)
	return nil
}

func (f *fakeAdapter) DescribeRelation(_ context.Context, rel relation.Relation) (map[string]any, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	raw, ok := f.observed[rel.Identifier]
	if !ok {
		return nil, core.ErrRelationNotFound
	}
	return raw, nil
}

func (f *fakeAdapter) RenderAlter(rel relation.Relation, cs *changeset.Changeset) ([]string, error) {
	clauses := make([]string, 0, len(cs.Changes))
	for _, c := range cs.Changes {
		clauses = append(clauses, c.Clause())
	}
	return []string{"alter " + rel.Identifier + " " + strings.Join(clauses, ", ")}, nil
}

func target(identifier string, desired map[string]any) Target {
	return Target{
		Relation: relation.New("proj", "analytics", identifier, relation.BigQueryPolicy()),
		Desired:  desired,
	}
}

func newFake() *fakeAdapter {
	return &fakeAdapter{observed: map[string]map[string]any{
		"orders": {
			"type":       "TABLE",
			"clustering": map[string]any{"fields": []any{"customer_id"}},
			"labels":     map[string]any{"team": "data-eng"},
		},
		"customers": {
			"type": "TABLE",
		},
		"daily": {
			"type": "VIEW",
		},
	}}
}

func TestPlanner_Plan(t *testing.T) {
	fake := newFake()
	p := New(Config{Adapter: fake, Concurrency: 2})

	targets := []Target{
		target("orders", map[string]any{
			"materialized": "table",
			"cluster_by":   "customer_id",
			"labels":       map[string]any{"team": "data-eng"},
		}),
		target("customers", map[string]any{
			"materialized": "table",
			"labels":       map[string]any{"pii": "true"},
		}),
		target("daily", map[string]any{"materialized": "table"}),
		target("brand_new", map[string]any{"materialized": "view"}),
	}

	plan, err := p.Plan(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, plan.Results, 4)
	assert.NotEmpty(t, plan.RunID)

	tests := []struct {
		identifier  string
		action      changeset.Action
		kinds       []changeset.Kind
		fullRefresh bool
	}{
		{identifier: "orders", action: changeset.ActionAlter, kinds: nil},
		{identifier: "customers", action: changeset.ActionAlter, kinds: []changeset.Kind{changeset.KindLabels}},
		{identifier: "daily", action: changeset.ActionAlter, kinds: []changeset.Kind{changeset.KindRebuild}, fullRefresh: true},
		{identifier: "brand_new", action: changeset.ActionAdd, kinds: []changeset.Kind{changeset.KindRebuild}, fullRefresh: true},
	}

	for i, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			res := plan.Results[i]
			assert.Equal(t, tt.identifier, res.Relation.Identifier, "results keep input order")
			assert.Equal(t, tt.action, res.Changeset.Action)
			var got []changeset.Kind
			for _, c := range res.Changeset.Changes {
				got = append(got, c.Kind)
			}
			assert.Equal(t, tt.kinds, got)
			assert.Equal(t, tt.fullRefresh, res.Changeset.RequiresFullRefresh())
			assert.Equal(t, res.Desired.Type, res.Relation.Type)
		})
	}

	assert.Nil(t, plan.Results[3].Existing)
	assert.Len(t, plan.Changed(), 3)
}

func TestPlanner_PlanErrors(t *testing.T) {
	tests := []struct {
		name      string
		adapter   *fakeAdapter
		desired   map[string]any
		errSubstr string
		validates bool
	}{
		{
			name:      "invalid declaration",
			adapter:   newFake(),
			desired:   map[string]any{"materialized": "table", "partition_by": "ts"},
			errSubstr: "plan `proj`.`analytics`.`orders`",
			validates: true,
		},
		{
			name:      "describe failure",
			adapter:   &fakeAdapter{describeErr: errors.New("permission denied")},
			desired:   map[string]any{"materialized": "table"},
			errSubstr: "describe: permission denied",
		},
		{
			name: "bad observed metadata",
			adapter: &fakeAdapter{observed: map[string]map[string]any{
				"orders": {"type": "SNAPSHOT"},
			}},
			desired:   map[string]any{"materialized": "table"},
			errSubstr: "read warehouse metadata",
			validates: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{Adapter: tt.adapter})
			_, err := p.Plan(context.Background(), []Target{target("orders", tt.desired)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Equal(t, tt.validates, core.IsValidationError(err))
		})
	}
}

func TestPlanner_PlanRequiresAdapter(t *testing.T) {
	_, err := New(Config{}).Plan(context.Background(), nil)
	require.Error(t, err)
}

func TestPlanner_PlanOne(t *testing.T) {
	p := New(Config{})

	cs, err := p.PlanOne(
		map[string]any{"type": "TABLE", "labels": map[string]any{"team": "a"}},
		map[string]any{"materialized": "table", "labels": map[string]any{"team": "b"}},
	)
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, changeset.KindLabels, cs.Changes[0].Kind)
	assert.Equal(t, changeset.ActionAlter, cs.Changes[0].Action)

	cs, err = p.PlanOne(nil, map[string]any{"materialized": "view"})
	require.NoError(t, err)
	assert.Equal(t, changeset.ActionAdd, cs.Action)

	_, err = p.PlanOne(nil, map[string]any{"materialized": "table", "bogus": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "desired config")
}

func TestPlanner_PlanOneLabelLimit(t *testing.T) {
	desired := map[string]any{"materialized": "table", "labels": map[string]any{"owner": "abcdefghijk"}}

	_, err := New(Config{}).PlanOne(nil, desired)
	require.NoError(t, err, "zero limit disables the length check")

	p := New(Config{Parser: relconfig.Parser{LabelLengthLimit: 10}})
	_, err = p.PlanOne(nil, desired)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestPlanner_Apply(t *testing.T) {
	fake := newFake()
	p := New(Config{Adapter: fake})

	plan, err := p.Plan(context.Background(), []Target{
		target("orders", map[string]any{"materialized": "table", "cluster_by": "customer_id"}),
		target("customers", map[string]any{"materialized": "table", "labels": map[string]any{"pii": "true"}}),
		target("brand_new", map[string]any{"materialized": "table"}),
	})
	require.NoError(t, err)

	skipped, err := p.Apply(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, skipped, 1)
	assert.Equal(t, "brand_new", skipped[0].Relation.Identifier)
	require.Len(t, fake.executed, 2)
	assert.ElementsMatch(t, []string{
		`alter orders team`,
		`alter customers ("pii", "true")`,
	}, fake.executed)
}

var _ adapter.Adapter = (*fakeAdapter)(nil)
