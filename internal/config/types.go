// Package config loads leapdw project configuration.
//
// Values are layered with koanf. From lowest to highest precedence:
// built-in defaults, the project file (leapdw.yaml), LEAPDW_ environment
// variables and explicitly set command line flags.
package config

import "github.com/leapstack-labs/leapdw/pkg/core"

// Config holds the full configuration of a leapdw invocation.
type Config struct {
	core.ProjectConfig `koanf:",squash"`

	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// File is the config file that was loaded, empty when none was found.
	File string `koanf:"-"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	RelationsDir string             `koanf:"relations_dir"`
	Target       *core.TargetConfig `koanf:"target"`
}
