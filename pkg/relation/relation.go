package relation

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"golang.org/x/text/cases"
)

// InformationSchemaIdentifier is the identifier of information-schema relations.
const InformationSchemaIdentifier = "INFORMATION_SCHEMA"

// Relation identifies a warehouse object.
// Comparisons are case-insensitive; rendering preserves the original casing.
type Relation struct {
	Database   string
	Schema     string
	Identifier string
	// Type is empty when the kind is not known yet (e.g. temporary relations).
	Type   core.RelationType
	Policy Policy
	// InformationSchemaView is set on relations returned by InformationSchema.
	InformationSchemaView string
}

// New creates a relation with the given policy.
func New(database, schema, identifier string, policy Policy) Relation {
	return Relation{
		Database:   database,
		Schema:     schema,
		Identifier: identifier,
		Policy:     policy,
	}
}

// WithType returns a copy of r with its kind set.
func (r Relation) WithType(t core.RelationType) Relation {
	r.Type = t
	return r
}

// Part returns the value of one path component.
func (r Relation) Part(c Component) string {
	switch c {
	case ComponentDatabase:
		return r.Database
	case ComponentSchema:
		return r.Schema
	case ComponentIdentifier:
		return r.Identifier
	default:
		return ""
	}
}

// Render returns the dotted, policy-quoted path of the relation.
func (r Relation) Render() string {
	var parts []string
	for _, c := range []Component{ComponentDatabase, ComponentSchema, ComponentIdentifier} {
		v := r.Part(c)
		if v == "" || !r.Policy.Include.Get(c) {
			continue
		}
		if r.Policy.Quote.Get(c) {
			v = r.Policy.QuoteIdentifier(v)
		}
		parts = append(parts, v)
	}
	if r.InformationSchemaView != "" {
		parts = append(parts, r.InformationSchemaView)
	}
	return strings.Join(parts, ".")
}

func (r Relation) String() string {
	return r.Render()
}

// Matches reports whether r and other name the same relation: all three parts
// equal under Unicode case folding.
func (r Relation) Matches(other Relation) bool {
	return EqualFold(r.Database, other.Database) &&
		EqualFold(r.Schema, other.Schema) &&
		EqualFold(r.Identifier, other.Identifier)
}

// EqualFold compares identifiers case-insensitively.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Fold returns the case-folded form of an identifier part. A new Caser is
// created per call since Casers are not safe for concurrent use.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// InformationSchema returns the information-schema relation for r's database
// and schema. Table-level views such as __TABLES__ drop the identifier part,
// schema-level views such as SCHEMATA drop the schema part. The identifier is
// never quoted.
func (r Relation) InformationSchema(view string) Relation {
	include := r.Policy.Include
	include.Schema = true
	include.Identifier = true
	switch view {
	case "", "SCHEMATA", "SCHEMATA_OPTIONS":
		include.Schema = false
	case "__TABLES__":
		include.Identifier = false
	}

	policy := r.Policy
	policy.Include = include
	policy.Quote = r.Policy.Quote.With(ComponentIdentifier, false)

	return Relation{
		Database:              r.Database,
		Schema:                r.Schema,
		Identifier:            InformationSchemaIdentifier,
		Policy:                policy,
		InformationSchemaView: view,
	}
}

// Replace returns the same information schema pointed at a different view.
func (r Relation) Replace(view string) Relation {
	return r.InformationSchema(view)
}

// ParseName reads a dotted relation name such as proj.analytics.orders.
// Parts may be wrapped in the policy's quote character. A two-part name
// leaves the database empty.
func ParseName(name string, base Policy) (Relation, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Relation{}, &core.ValidationError{
			Field:    "relation",
			Value:    name,
			Expected: "database.schema.identifier or schema.identifier",
		}
	}
	q := base.QuoteChar
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if q != "" && len(p) >= 2*len(q) && strings.HasPrefix(p, q) && strings.HasSuffix(p, q) {
			p = strings.ReplaceAll(p[len(q):len(p)-len(q)], q+q, q)
		}
		if p == "" {
			return Relation{}, &core.ValidationError{Field: "relation", Value: name, Expected: "non-empty name parts"}
		}
		parts[i] = p
	}
	if len(parts) == 2 {
		parts = append([]string{""}, parts...)
	}
	return New(parts[0], parts[1], parts[2], base), nil
}

type rawRelation struct {
	Type          *string             `mapstructure:"type"`
	Path          rawPath             `mapstructure:"path"`
	QuotePolicy   *componentOverrides `mapstructure:"quote_policy"`
	IncludePolicy *componentOverrides `mapstructure:"include_policy"`
}

type rawPath struct {
	Database   string `mapstructure:"database"`
	Schema     string `mapstructure:"schema"`
	Identifier string `mapstructure:"identifier"`
}

// Parse validates and decodes a relation mapping of the form
//
//	{"type": "view", "path": {"database": ..., "schema": ..., "identifier": ...},
//	 "quote_policy": {"identifier": true}, "include_policy": {...}}
//
// Policy mappings override the given base policy per component. A nil type is
// accepted for relations whose kind is not known yet.
func Parse(raw map[string]any, base Policy) (Relation, error) {
	var decoded rawRelation
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &decoded,
	})
	if err != nil {
		return Relation{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Relation{}, &core.ValidationError{
			Field:    "relation",
			Value:    raw,
			Expected: "a mapping with type, path, quote_policy and include_policy (" + err.Error() + ")",
		}
	}

	r := Relation{
		Database:   decoded.Path.Database,
		Schema:     decoded.Path.Schema,
		Identifier: decoded.Path.Identifier,
		Policy:     base,
	}
	if decoded.Type != nil {
		t, err := core.ParseRelationType(*decoded.Type)
		if err != nil {
			return Relation{}, err
		}
		r.Type = t
	}
	if decoded.QuotePolicy != nil {
		r.Policy.Quote = decoded.QuotePolicy.apply(r.Policy.Quote)
	}
	if decoded.IncludePolicy != nil {
		r.Policy.Include = decoded.IncludePolicy.apply(r.Policy.Include)
	}
	return r, nil
}
