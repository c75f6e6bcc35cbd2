// Package core defines the shared language of the leapdw system.
//
// This package contains:
//   - Relation kinds (RelationType) and their alterability rules
//   - Validation errors raised when parsing declared or observed configuration
//   - Target configuration (TargetConfig) consumed by adapters
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
