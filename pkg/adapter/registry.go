package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// Registration describes a warehouse adapter: how to build it and the
// target defaults that come with its warehouse.
type Registration struct {
	// Factory creates an unconnected adapter.
	Factory func(*slog.Logger) Adapter

	// Policy is how the warehouse quotes and renders relation names.
	Policy relation.Policy

	// LabelLengthLimit is the warehouse's label key and value length limit.
	// Zero means labels are not length-checked.
	LabelLengthLimit int

	// DefaultSchema is used when a target names no schema.
	DefaultSchema string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register adds a warehouse adapter to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, reg Registration) {
	if reg.Factory == nil {
		panic(fmt.Sprintf("adapter: Register %q with a nil factory", name))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = reg
}

// Get retrieves a registration by warehouse name.
func Get(name string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[name]
	return reg, ok
}

// PolicyFor returns the rendering policy registered for a warehouse.
func PolicyFor(name string) (relation.Policy, error) {
	reg, ok := Get(name)
	if !ok {
		return relation.Policy{}, &UnknownAdapterError{Type: name, Available: ListAdapters()}
	}
	return reg.Policy, nil
}

// ApplyDefaults fills the unset fields of t from the registration of its
// warehouse. Unknown warehouses are left untouched.
func ApplyDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	reg, ok := Get(t.Type)
	if !ok {
		return
	}
	if t.LabelLengthLimit == nil {
		limit := reg.LabelLengthLimit
		t.LabelLengthLimit = &limit
	}
	if t.Schema == "" {
		t.Schema = reg.DefaultSchema
	}
}

// NewAdapter creates an unconnected adapter for the target's warehouse.
// A nil logger discards output.
func NewAdapter(cfg core.TargetConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	reg, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return reg.Factory(logger), nil
}

// ListAdapters returns all registered warehouse names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a warehouse has a registered adapter.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when an unknown warehouse is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check your target.type in leapdw.yaml", e.Type, e.Available)
}
