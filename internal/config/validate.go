package config

import (
	"fmt"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/core"
)

// ValidateTarget checks that the target names a registered adapter.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return nil
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if t.LabelLimit() < 0 {
		return fmt.Errorf("target label_length_limit must not be negative (got %d)", t.LabelLimit())
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive (got %d)", c.Concurrency)
	}
	switch c.OutputFormat {
	case "auto", "text", "markdown", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want auto, text, markdown, json or yaml)", c.OutputFormat)
	}
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}
