package changeset

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// Changeset is the ordered list of changes that reconciles one relation.
type Changeset struct {
	// Action is ActionAdd when the relation does not exist yet and
	// ActionAlter otherwise.
	Action  Action
	Type    core.RelationType
	Changes []ConfigChange
	// Desired is the configuration the changes reconcile towards. Renderers
	// that can only replace a whole attribute, such as a label set, read the
	// full value from here.
	Desired *relconfig.RelationConfig
}

// RequiresFullRefresh reports whether any change forces recreation.
func (cs *Changeset) RequiresFullRefresh() bool {
	for _, c := range cs.Changes {
		if c.RequiresFullRefresh() {
			return true
		}
	}
	return false
}

// HasChanges reports whether the relation differs from the desired state.
func (cs *Changeset) HasChanges() bool {
	return len(cs.Changes) > 0
}

// ByKind returns the changes of kind k in emission order.
func (cs *Changeset) ByKind(k Kind) []ConfigChange {
	var out []ConfigChange
	for _, c := range cs.Changes {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Build compares desired against existing and returns the changes needed to
// reconcile them. Both configs must already be validated.
//
// A nil existing config means the relation is absent and yields a single
// rebuild. So does a change of relation type, or any difference on a kind
// that cannot be altered in place. A rebuild is never combined with
// per-attribute changes since the CREATE statement re-specifies everything.
func Build(existing, desired *relconfig.RelationConfig) *Changeset {
	cs := &Changeset{Action: ActionAlter, Type: desired.Type, Desired: desired}

	switch {
	case existing == nil:
		cs.Action = ActionAdd
		cs.Changes = []ConfigChange{Rebuild(desired.Type, "relation does not exist")}
		return cs
	case existing.Type != desired.Type:
		cs.Changes = []ConfigChange{Rebuild(desired.Type,
			fmt.Sprintf("relation type changes from %s to %s", existing.Type, desired.Type))}
		return cs
	}

	changes := diff(existing, desired)
	if len(changes) > 0 && !desired.Type.AlterableInPlace() {
		cs.Changes = []ConfigChange{Rebuild(desired.Type,
			fmt.Sprintf("a %s cannot be altered in place", desired.Type))}
		return cs
	}
	cs.Changes = changes
	return cs
}

func diff(existing, desired *relconfig.RelationConfig) []ConfigChange {
	var changes []ConfigChange

	if !partition.Matches(existing.Partition.Observed(), desired.Partition) {
		changes = append(changes, Partitioning(desired.Partition))
	}

	if !relconfig.ClusterEqual(existing.Cluster, desired.Cluster) {
		changes = append(changes, Clustering(desired.Cluster))
	}

	if desired.Type == core.RelationDynamicTable {
		changes = append(changes, diffDynamic(existing.Options, desired.Options)...)
	}

	changes = append(changes, diffLabels(existing.Options.Labels, desired.Options.Labels)...)
	changes = append(changes, diffOptions(existing.Options, desired.Options)...)
	return changes
}

func diffDynamic(existing, desired relconfig.Options) []ConfigChange {
	var changes []ConfigChange
	// AUTO lets the warehouse pick, and SHOW reports the mode it picked.
	if desired.RefreshMode != "" && desired.RefreshMode != relconfig.RefreshAuto &&
		!strings.EqualFold(string(existing.RefreshMode), string(desired.RefreshMode)) {
		changes = append(changes, RefreshMode(desired.RefreshMode))
	}
	if relconfig.NormalizeTargetLag(existing.TargetLag) != relconfig.NormalizeTargetLag(desired.TargetLag) {
		changes = append(changes, TargetLag(desired.TargetLag))
	}
	if !strings.EqualFold(existing.Warehouse, desired.Warehouse) {
		changes = append(changes, Warehouse(desired.Warehouse))
	}
	return changes
}

// diffLabels emits one change per differing key, sorted by key.
func diffLabels(existing, desired map[string]string) []ConfigChange {
	keys := make(map[string]struct{}, len(existing)+len(desired))
	for k := range existing {
		keys[k] = struct{}{}
	}
	for k := range desired {
		keys[k] = struct{}{}
	}

	var changes []ConfigChange
	for _, k := range catalog.SortedKeys(keys) {
		have, inExisting := existing[k]
		want, inDesired := desired[k]
		switch {
		case inDesired && !inExisting:
			changes = append(changes, LabelChange(ActionAdd, k, want))
		case inExisting && !inDesired:
			changes = append(changes, LabelChange(ActionDrop, k, ""))
		case have != want:
			changes = append(changes, LabelChange(ActionAlter, k, want))
		}
	}
	return changes
}

func diffOptions(existing, desired relconfig.Options) []ConfigChange {
	var changes []ConfigChange
	add := func(name string, have, want *string, same func(a, b string) bool) {
		switch {
		case have == nil && want == nil:
		case have == nil:
			changes = append(changes, OptionChange(ActionAdd, name, *want))
		case want == nil:
			changes = append(changes, OptionChange(ActionDrop, name, ""))
		case !same(*have, *want):
			changes = append(changes, OptionChange(ActionAlter, name, *want))
		}
	}
	exact := func(a, b string) bool { return a == b }

	add(OptionDescription, existing.Description, desired.Description, exact)
	add(OptionExpirationTimestamp, existing.ExpirationTimestamp, desired.ExpirationTimestamp, relconfig.SameExpiration)
	add(OptionKMSKeyName, existing.KMSKeyName, desired.KMSKeyName, exact)
	return changes
}
