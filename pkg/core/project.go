package core

// ProjectConfig holds project-level configuration.
type ProjectConfig struct {
	// RelationsDir holds declared relation configuration files.
	RelationsDir string        `koanf:"relations_dir"`
	Target       *TargetConfig `koanf:"target"`
	// Concurrency bounds how many relations are planned at once.
	Concurrency int `koanf:"concurrency"`
}

// TargetConfig holds warehouse target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // bigquery, snowflake

	// Database is the BigQuery project or the Snowflake database.
	Database string `koanf:"database"`
	// Schema is the BigQuery dataset or the Snowflake schema.
	Schema string `koanf:"schema"`

	// BigQuery-specific
	Location        string `koanf:"location"`
	CredentialsFile string `koanf:"credentials_file"`

	// Snowflake-specific
	Account   string `koanf:"account"`
	User      string `koanf:"user"`
	Password  string `koanf:"password"`
	Warehouse string `koanf:"warehouse"`
	Role      string `koanf:"role"`

	// LabelLengthLimit is the maximum label key/value length accepted by the
	// warehouse. Nil takes the warehouse default; zero disables the check.
	LabelLengthLimit *int `koanf:"label_length_limit"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration
	Params map[string]any `koanf:"params"`
}

// LabelLimit returns the configured label length limit, or zero when none
// is set.
func (t *TargetConfig) LabelLimit() int {
	if t == nil || t.LabelLengthLimit == nil {
		return 0
	}
	return *t.LabelLengthLimit
}
