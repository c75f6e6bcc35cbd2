package snowflake

import (
	"fmt"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/snowflakedb/gosnowflake"
)

const application = "leapdw"

// buildConfig maps a target onto a driver configuration. Entries in
// cfg.Options are passed through as session parameters.
func buildConfig(cfg core.TargetConfig) (*gosnowflake.Config, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("snowflake target requires an account")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("snowflake target requires a user")
	}

	sf := &gosnowflake.Config{
		Account:     cfg.Account,
		User:        cfg.User,
		Password:    cfg.Password,
		Database:    cfg.Database,
		Schema:      cfg.Schema,
		Warehouse:   cfg.Warehouse,
		Role:        cfg.Role,
		Application: application,
	}
	if len(cfg.Options) > 0 {
		sf.Params = make(map[string]*string, len(cfg.Options))
		for k, v := range cfg.Options {
			sf.Params[k] = &v
		}
	}
	return sf, nil
}
