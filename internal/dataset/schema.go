// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema carries optional per-column kind overrides for ingestion. Overrides
// win over inference; cells that fail to parse under an override become
// missing.
type Schema struct {
	Columns   map[string]Kind `yaml:"columns"`
	Delimiter string          `yaml:"delimiter"`
}

// LoadSchema reads a schema override file in YAML form.
func LoadSchema(path string) (*Schema, error) {
	// #nosec G304 -- schema paths are provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	for name, kind := range s.Columns {
		if !kind.Valid() {
			return nil, fmt.Errorf("schema column %q: unknown kind %q", name, kind)
		}
	}
	if len(s.Delimiter) > 1 {
		return nil, fmt.Errorf("schema delimiter must be a single character, got %q", s.Delimiter)
	}
	return &s, nil
}

// kindFor returns the override for a column, if any.
func (s *Schema) kindFor(column string) (Kind, bool) {
	if s == nil || s.Columns == nil {
		return "", false
	}
	k, ok := s.Columns[column]
	return k, ok
}
