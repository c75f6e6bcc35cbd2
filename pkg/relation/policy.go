// Package relation models warehouse relation identifiers: the
// (database, schema, identifier) triple together with the quoting and
// inclusion rules used to render it.
package relation

import "strings"

// Component names one part of a relation path.
type Component int

// Path components in render order.
const (
	ComponentDatabase Component = iota
	ComponentSchema
	ComponentIdentifier
)

func (c Component) String() string {
	switch c {
	case ComponentDatabase:
		return "database"
	case ComponentSchema:
		return "schema"
	case ComponentIdentifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// ComponentPolicy holds one boolean per path component.
type ComponentPolicy struct {
	Database   bool `mapstructure:"database"`
	Schema     bool `mapstructure:"schema"`
	Identifier bool `mapstructure:"identifier"`
}

// Get returns the flag for c.
func (p ComponentPolicy) Get(c Component) bool {
	switch c {
	case ComponentDatabase:
		return p.Database
	case ComponentSchema:
		return p.Schema
	case ComponentIdentifier:
		return p.Identifier
	default:
		return false
	}
}

// With returns a copy of p with c set to v.
func (p ComponentPolicy) With(c Component, v bool) ComponentPolicy {
	switch c {
	case ComponentDatabase:
		p.Database = v
	case ComponentSchema:
		p.Schema = v
	case ComponentIdentifier:
		p.Identifier = v
	}
	return p
}

// componentOverrides is the decoded form of a partial policy mapping such as
// {"identifier": false}. Unset components keep the warehouse default.
type componentOverrides struct {
	Database   *bool `mapstructure:"database"`
	Schema     *bool `mapstructure:"schema"`
	Identifier *bool `mapstructure:"identifier"`
}

func (o componentOverrides) apply(p ComponentPolicy) ComponentPolicy {
	if o.Database != nil {
		p.Database = *o.Database
	}
	if o.Schema != nil {
		p.Schema = *o.Schema
	}
	if o.Identifier != nil {
		p.Identifier = *o.Identifier
	}
	return p
}

// Policy combines quoting and inclusion rules with the warehouse quote character.
type Policy struct {
	Quote     ComponentPolicy
	Include   ComponentPolicy
	QuoteChar string
}

func allComponents() ComponentPolicy {
	return ComponentPolicy{Database: true, Schema: true, Identifier: true}
}

// BigQueryPolicy quotes every part with backticks.
func BigQueryPolicy() Policy {
	return Policy{Quote: allComponents(), Include: allComponents(), QuoteChar: "`"}
}

// SnowflakePolicy leaves parts unquoted so the warehouse upper-cases them.
func SnowflakePolicy() Policy {
	return Policy{Quote: ComponentPolicy{}, Include: allComponents(), QuoteChar: `"`}
}

// QuoteIdentifier wraps s in the policy quote character, doubling any embedded
// quote characters.
func (p Policy) QuoteIdentifier(s string) string {
	q := p.QuoteChar
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(s, q, q+q) + q
}
