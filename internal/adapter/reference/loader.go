package reference

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML reference document and resolves its file
// references relative to the document's directory.
func LoadFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing reference YAML: %w", err)
	}

	if err := validate(&doc); err != nil {
		return nil, fmt.Errorf("validating reference: %w", err)
	}

	dir := filepath.Dir(path)
	if doc.TablesFile != "" {
		if doc.Tables, err = readRelative(dir, doc.TablesFile); err != nil {
			return nil, err
		}
	}
	if doc.StructureFile != "" {
		if doc.Structure, err = readRelative(dir, doc.StructureFile); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

func readRelative(dir, name string) (string, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading reference text: %w", err)
	}
	return string(data), nil
}

func validate(doc *Document) error {
	if doc.Tables != "" && doc.TablesFile != "" {
		return fmt.Errorf("tables and tables_file are mutually exclusive")
	}
	if doc.Structure != "" && doc.StructureFile != "" {
		return fmt.Errorf("structure and structure_file are mutually exclusive")
	}
	for key, tc := range doc.Context.Tables {
		if key == "" {
			return fmt.Errorf("context.tables contains an empty key")
		}
		for col := range tc.Columns {
			if col == "" {
				return fmt.Errorf("context.tables[%q].columns contains an empty key", key)
			}
		}
	}
	return nil
}
