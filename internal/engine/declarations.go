package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// declaration is one YAML document of a relations file:
//
//	relation:
//	  path: {database: proj, schema: analytics, identifier: events}
//	config:
//	  materialized: table
//	  partition_by: {field: ts, data_type: timestamp}
type declaration struct {
	Relation map[string]any `yaml:"relation"`
	Config   map[string]any `yaml:"config"`
}

// ReadTargets decodes every YAML document in r into a Target. Relation
// identifiers use the given policy unless a document overrides it.
func ReadTargets(r io.Reader, source string, policy relation.Policy) ([]Target, error) {
	dec := yaml.NewDecoder(r)
	var targets []Target
	for doc := 1; ; doc++ {
		var d declaration
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", source, doc, err)
		}
		if d.Relation == nil && d.Config == nil {
			continue
		}
		if d.Relation == nil {
			return nil, fmt.Errorf("%s: document %d: missing relation", source, doc)
		}

		rel, err := relation.Parse(d.Relation, policy)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", source, doc, err)
		}
		if d.Config == nil {
			d.Config = map[string]any{}
		}
		targets = append(targets, Target{
			Relation: rel,
			Desired:  d.Config,
			Source:   fmt.Sprintf("%s#%d", source, doc),
		})
	}
	return targets, nil
}

// LoadTargets reads all .yaml and .yml files under dir in lexical order.
func LoadTargets(dir string, policy relation.Policy) ([]Target, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan relations directory: %w", err)
	}
	sort.Strings(files)

	var targets []Target
	for _, path := range files {
		f, err := os.Open(path) // #nosec G304 -- path comes from walking the configured directory
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		ts, err := ReadTargets(f, path, policy)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		targets = append(targets, ts...)
	}
	return targets, nil
}
