// Package reference loads the static documents that describe the queryable
// tables and serves them to the get_database_tables and
// get_database_structure tools.
package reference

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the operator-maintained reference file.
//
// Each of the two texts can be given inline, as a path relative to the
// document, or left empty to be generated from Context.
type Document struct {
	Tables        string        `yaml:"tables"`
	TablesFile    string        `yaml:"tables_file"`
	Structure     string        `yaml:"structure"`
	StructureFile string        `yaml:"structure_file"`
	Context       ContextConfig `yaml:"context"`
}

// ContextConfig maps table names to business descriptions.
type ContextConfig struct {
	Tables map[string]TableContext `yaml:"tables"`
}

// TableContext describes a table and its columns.
type TableContext struct {
	Description string                   `yaml:"description"`
	Columns     map[string]ColumnContext `yaml:"columns"`
}

// ColumnContext holds a column's description and optional type.
type ColumnContext struct {
	Description string `yaml:"description"`
	Type        string `yaml:"type,omitempty"`
}

// UnmarshalYAML accepts either a plain string or a mapping.
//
//	columns:
//	  region: "Region code, 6 digits"   # plain string
//	  amount:                           # mapping
//	    description: "Settled amount"
//	    type: "decimal(12,2)"
func (cc *ColumnContext) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		cc.Description = value.Value
		return nil
	}
	type alias ColumnContext
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column context: %w", err)
	}
	*cc = ColumnContext(a)
	return nil
}
