package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapdw.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapdw.yml"

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: LEAPDW_TARGET__SCHEMA sets target.schema.
const EnvPrefix = "LEAPDW_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flags that select what to load rather than carrying config values.
var loaderFlags = map[string]bool{"config": true, "target": true}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Options controls a Load call.
type Options struct {
	// File is an explicit config file path. When empty the loader searches
	// upward from Dir.
	File string
	// Dir is where the search starts. Defaults to the working directory.
	Dir string
	// Environment overrides the configured environment name.
	Environment string
	// Flags holds command line overrides; only changed flags are applied.
	Flags *pflag.FlagSet
}

// Load loads configuration from defaults, file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dir = cwd
	}

	// 2. Config file
	cfgFile := opts.File
	projectRoot := dir
	if cfgFile == "" {
		if root := FindProjectRoot(dir); root != "" {
			projectRoot = root
			cfgFile = findConfigFile(root)
		}
	} else if abs, err := filepath.Abs(cfgFile); err == nil {
		projectRoot = filepath.Dir(abs)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || loaderFlags[f.Name] {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.File = cfgFile

	envName := cfg.Environment
	if opts.Environment != "" {
		envName = opts.Environment
	}
	if envName != "" {
		cfg.Environment = envName
		if envCfg, ok := cfg.Environments[envName]; ok {
			if envCfg.RelationsDir != "" {
				cfg.RelationsDir = envCfg.RelationsDir
			}
			cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		} else if opts.Environment != "" && len(cfg.Environments) > 0 {
			return nil, fmt.Errorf("unknown environment %q", opts.Environment)
		}
	}

	ApplyDefaults(&cfg.ProjectConfig)
	cfg.RelationsDir = resolvePathRelativeTo(cfg.RelationsDir, projectRoot)
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps LEAPDW_TARGET__SCHEMA to target.schema.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing leapdw.yaml or leapdw.yml.
// Returns empty string if not found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// expandEnvVars expands ${VAR} patterns. Unset variables are left as written.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in credential fields.
func expandTargetEnvVars(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	t.Account = expandEnvVars(t.Account)
	t.Database = expandEnvVars(t.Database)
	t.CredentialsFile = expandEnvVars(t.CredentialsFile)
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	maps.Copy(merged.Options, base.Options)
	maps.Copy(merged.Options, override.Options)
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	maps.Copy(merged.Params, base.Params)
	maps.Copy(merged.Params, override.Params)

	setIf(&merged.Type, override.Type)
	setIf(&merged.Database, override.Database)
	setIf(&merged.Schema, override.Schema)
	setIf(&merged.Location, override.Location)
	setIf(&merged.CredentialsFile, override.CredentialsFile)
	setIf(&merged.Account, override.Account)
	setIf(&merged.User, override.User)
	setIf(&merged.Password, override.Password)
	setIf(&merged.Warehouse, override.Warehouse)
	setIf(&merged.Role, override.Role)
	if override.LabelLengthLimit != nil {
		limit := *override.LabelLengthLimit
		merged.LabelLengthLimit = &limit
	}
	return &merged
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
