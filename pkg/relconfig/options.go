package relconfig

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/spf13/cast"
)

// temporaryExpirationHours is the lifetime of temporary tables.
const temporaryExpirationHours = 12

// Label is one label in declaration order.
type Label struct {
	Key   string
	Value string
}

// SQLOptions are the rendered values of a CREATE/ALTER ... OPTIONS(...)
// clause. Empty fields are omitted when rendering.
type SQLOptions struct {
	ExpirationTimestamp     string
	KMSKeyName              string
	Description             string
	Labels                  []Label
	RequirePartitionFilter  *bool
	PartitionExpirationDays *int
}

// IsZero reports whether no option is set.
func (o SQLOptions) IsZero() bool {
	return o.ExpirationTimestamp == "" && o.KMSKeyName == "" && o.Description == "" &&
		len(o.Labels) == 0 && o.RequirePartitionFilter == nil && o.PartitionExpirationDays == nil
}

// Render formats the options as a comma-separated name=value list.
func (o SQLOptions) Render() string {
	var parts []string
	if o.ExpirationTimestamp != "" {
		parts = append(parts, "expiration_timestamp="+o.ExpirationTimestamp)
	}
	if o.KMSKeyName != "" {
		parts = append(parts, "kms_key_name="+o.KMSKeyName)
	}
	if o.Description != "" {
		parts = append(parts, "description="+o.Description)
	}
	if len(o.Labels) > 0 {
		parts = append(parts, "labels="+RenderLabels(o.Labels))
	}
	if o.RequirePartitionFilter != nil {
		parts = append(parts, fmt.Sprintf("require_partition_filter=%t", *o.RequirePartitionFilter))
	}
	if o.PartitionExpirationDays != nil {
		parts = append(parts, fmt.Sprintf("partition_expiration_days=%d", *o.PartitionExpirationDays))
	}
	return strings.Join(parts, ", ")
}

// RenderLabels formats labels as a BigQuery array of (key, value) structs.
func RenderLabels(labels []Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("(%s, %s)", QuoteString(l.Key), QuoteString(l.Value))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// QuoteString renders s as a double-quoted SQL string literal.
func QuoteString(s string) string {
	return `"` + escaper().Replace(s) + `"`
}

// QuoteDescription renders a description as a triple-quoted literal so
// multi-line docs survive.
func QuoteDescription(s string) string {
	return `"""` + escaper().Replace(s) + `"""`
}

// QuoteSingle renders s as a single-quoted string literal.
func QuoteSingle(s string) string {
	return `'` + singleEscaper().Replace(s) + `'`
}

func escaper() *strings.Replacer {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
}

func singleEscaper() *strings.Replacer {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
}

// PersistDocs selects where documentation is persisted.
type PersistDocs struct {
	Relation bool `mapstructure:"relation"`
}

// ModelConfig is the subset of a model's configuration that feeds the
// OPTIONS clause of its CREATE statement.
type ModelConfig struct {
	HoursToExpiration       *int              `mapstructure:"hours_to_expiration"`
	KMSKeyName              *string           `mapstructure:"kms_key_name"`
	Labels                  map[string]string `mapstructure:"labels"`
	LabelsFromMeta          bool              `mapstructure:"labels_from_meta"`
	Meta                    map[string]any    `mapstructure:"meta"`
	Description             string            `mapstructure:"description"`
	PersistDocs             PersistDocs       `mapstructure:"persist_docs"`
	PartitionBy             any               `mapstructure:"partition_by"`
	RequirePartitionFilter  *bool             `mapstructure:"require_partition_filter"`
	PartitionExpirationDays *int              `mapstructure:"partition_expiration_days"`
}

// ParseModelConfig decodes a model configuration. Keys it does not know are
// ignored since model configs carry many unrelated settings.
func ParseModelConfig(raw map[string]any) (ModelConfig, error) {
	var mc ModelConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &mc,
	})
	if err != nil {
		return mc, err
	}
	if err := dec.Decode(raw); err != nil {
		return mc, fmt.Errorf("decode model config: %w", err)
	}
	return mc, nil
}

// CommonOptions returns the options shared by tables and views.
//
// With labels_from_meta, meta entries become labels (sanitized, sorted by
// key) ahead of the explicit labels, and an explicit label overrides a meta
// entry with the same key in place.
func CommonOptions(mc ModelConfig, temporary bool) SQLOptions {
	var opts SQLOptions
	if mc.HoursToExpiration != nil && !temporary {
		opts.ExpirationTimestamp = expiresInHours(*mc.HoursToExpiration)
	}
	if mc.PersistDocs.Relation && mc.Description != "" {
		opts.Description = QuoteDescription(mc.Description)
	}
	if len(mc.Labels) > 0 || mc.LabelsFromMeta {
		opts.Labels = mergeLabels(mc)
	}
	return opts
}

// TableOptions returns the options for a table. Temporary tables always
// expire after twelve hours.
func TableOptions(mc ModelConfig, temporary bool) SQLOptions {
	opts := CommonOptions(mc, temporary)
	if mc.KMSKeyName != nil {
		opts.KMSKeyName = QuoteSingle(*mc.KMSKeyName)
	}
	if temporary {
		opts.ExpirationTimestamp = expiresInHours(temporaryExpirationHours)
		return opts
	}
	if mc.PartitionBy != nil && mc.RequirePartitionFilter != nil && *mc.RequirePartitionFilter {
		opts.RequirePartitionFilter = mc.RequirePartitionFilter
	}
	if mc.PartitionExpirationDays != nil {
		opts.PartitionExpirationDays = mc.PartitionExpirationDays
	}
	return opts
}

// ViewOptions returns the options for a view. Views carry no encryption key.
func ViewOptions(mc ModelConfig) SQLOptions {
	return CommonOptions(mc, false)
}

// OptionsFor renders the attribute options of an existing configuration,
// as used when a relation is recreated. Labels are sorted by key.
func OptionsFor(cfg *RelationConfig) SQLOptions {
	var opts SQLOptions
	if cfg == nil {
		return opts
	}
	o := cfg.Options
	if o.ExpirationTimestamp != nil {
		opts.ExpirationTimestamp = ExpirationLiteral(*o.ExpirationTimestamp)
	}
	if o.KMSKeyName != nil {
		opts.KMSKeyName = QuoteSingle(*o.KMSKeyName)
	}
	if o.Description != nil {
		opts.Description = QuoteDescription(*o.Description)
	}
	for _, k := range catalog.SortedKeys(o.Labels) {
		opts.Labels = append(opts.Labels, Label{Key: k, Value: o.Labels[k]})
	}
	return opts
}

// ExpirationLiteral renders an expiration value for an OPTIONS clause.
// Timestamps become TIMESTAMP literals; anything else is taken to be a SQL
// expression already.
func ExpirationLiteral(v string) string {
	if t, err := cast.ToTimeE(v); err == nil {
		return fmt.Sprintf("TIMESTAMP %s", QuoteString(t.UTC().Format("2006-01-02 15:04:05+00")))
	}
	return v
}

func expiresInHours(hours int) string {
	return fmt.Sprintf("TIMESTAMP_ADD(CURRENT_TIMESTAMP(), INTERVAL %d hour)", hours)
}

func mergeLabels(mc ModelConfig) []Label {
	var out []Label
	index := make(map[string]int)
	add := func(k, v string) {
		if i, ok := index[k]; ok {
			out[i].Value = v
			return
		}
		index[k] = len(out)
		out = append(out, Label{Key: k, Value: v})
	}

	if mc.LabelsFromMeta {
		for _, k := range catalog.SortedKeys(mc.Meta) {
			add(catalog.SanitizeLabel(k), catalog.SanitizeLabel(cast.ToString(mc.Meta[k])))
		}
	}
	for _, k := range catalog.SortedKeys(mc.Labels) {
		add(k, mc.Labels[k])
	}
	return out
}
