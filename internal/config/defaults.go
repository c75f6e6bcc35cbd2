package config

import (
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/core"
)

// Default configuration values.
const (
	DefaultRelationsDir = "relations"
	DefaultConcurrency  = 4
	DefaultEnv          = "dev"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
)

// defaultMap is loaded into koanf before any other provider.
func defaultMap() map[string]any {
	return map[string]any{
		"relations_dir": DefaultRelationsDir,
		"concurrency":   DefaultConcurrency,
		"environment":   DefaultEnv,
		"verbose":       false,
		"output":        DefaultOutput,
	}
}

// ApplyDefaults applies default values to a ProjectConfig.
func ApplyDefaults(c *core.ProjectConfig) {
	if c == nil {
		return
	}
	if c.RelationsDir == "" {
		c.RelationsDir = DefaultRelationsDir
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
}

// ApplyTargetDefaults normalizes the target type and fills unset fields from
// the defaults its warehouse adapter registered.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	adapter.ApplyDefaults(t)
}
