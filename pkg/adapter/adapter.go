// Package adapter defines the contract between the reconciliation engine and
// warehouse adapters.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves with Register from their init() functions.
package adapter

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/leapstack-labs/leapdw/pkg/changeset"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// Adapter defines the interface that all warehouse adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the warehouse using the provided config.
	Connect(ctx context.Context, cfg core.TargetConfig) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// DescribeRelation returns the observed configuration of rel in the
	// format accepted by relconfig.FromWarehouseMetadata. It returns
	// core.ErrRelationNotFound when the relation does not exist.
	DescribeRelation(ctx context.Context, rel relation.Relation) (map[string]any, error)

	// RenderAlter renders the statements that apply cs in place. It fails
	// when cs requires a full refresh.
	RenderAlter(rel relation.Relation, cs *changeset.Changeset) ([]string, error)

	// Policy returns the identifier quoting and inclusion policy.
	Policy() relation.Policy
}

// ChangesetApplier is implemented by adapters that apply in-place changes
// through an API instead of SQL statements.
type ChangesetApplier interface {
	ApplyChangeset(ctx context.Context, rel relation.Relation, cs *changeset.Changeset) error
}

// RelationLister is implemented by adapters that can list the relations of
// a schema. Results use the catalog.Column* names for the database, schema and
// relation name columns.
type RelationLister interface {
	ListRelations(ctx context.Context, database, schema string) (*catalog.Table, error)
}

// TableCopier is implemented by adapters that copy tables server-side.
// Materialization selects replace ("table") or append ("incremental").
type TableCopier interface {
	CopyTable(ctx context.Context, src, dst relation.Relation, materialization string) error
}

// AccessGranter is implemented by adapters that can authorize a view to read
// from another schema.
type AccessGranter interface {
	GrantAccessTo(ctx context.Context, view relation.Relation, database, schema string) error
}

// UnsupportedError is returned when an adapter lacks an optional capability.
type UnsupportedError struct {
	Adapter    string
	Capability string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s adapter does not support %s", e.Adapter, e.Capability)
}

// FullRefreshError is returned when an in-place apply is requested for a
// changeset that can only be applied by recreating the relation.
type FullRefreshError struct {
	Relation string
}

func (e *FullRefreshError) Error() string {
	return fmt.Sprintf("changes to %s require a full refresh and cannot be applied in place", e.Relation)
}

// Apply applies cs to rel in place. Adapters implementing ChangesetApplier
// are used directly, otherwise the rendered statements are executed in
// order and the first failure is returned.
func Apply(ctx context.Context, a Adapter, rel relation.Relation, cs *changeset.Changeset) error {
	if !cs.HasChanges() {
		return nil
	}
	if cs.RequiresFullRefresh() {
		return &FullRefreshError{Relation: rel.Render()}
	}
	if applier, ok := a.(ChangesetApplier); ok {
		return applier.ApplyChangeset(ctx, rel, cs)
	}

	stmts, err := a.RenderAlter(rel, cs)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply statement %d of %d on %s: %w", i+1, len(stmts), rel.Render(), err)
		}
	}
	return nil
}
