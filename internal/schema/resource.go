package schema

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Definition represents a parsed and validated .firebird.yml resource schema
type Definition struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"`
	Spec       Spec   `yaml:"spec"`

	// Path is the file the definition was read from (empty for ParseBytes).
	Path string `yaml:"-"`
}

// Spec contains the resource specification
type Spec struct {
	TableName     string         `yaml:"table_name,omitempty"`
	Description   string         `yaml:"description,omitempty"`
	Fields        []Field        `yaml:"fields"`
	Enums         []Enum         `yaml:"enums,omitempty"`
	Indexes       []Index        `yaml:"indexes,omitempty"`
	Relationships []Relationship `yaml:"relationships,omitempty"`
	Timestamps    bool           `yaml:"timestamps,omitempty"`
	SoftDeletes   bool           `yaml:"soft_deletes,omitempty"`
}

// Field represents a single field in the resource
type Field struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	DBType      string            `yaml:"db_type,omitempty"`
	Description string            `yaml:"description,omitempty"`
	PrimaryKey  bool              `yaml:"primary_key,omitempty"`
	Unique      bool              `yaml:"unique,omitempty"`
	Index       bool              `yaml:"index,omitempty"`
	Nullable    bool              `yaml:"nullable,omitempty"`
	Required    bool              `yaml:"required,omitempty"`
	Default     any               `yaml:"default,omitempty"`
	Tags        map[string]string `yaml:"tags,omitempty"`
	Validation  []string          `yaml:"validation,omitempty"`
	JSON        string            `yaml:"json,omitempty"`
	AutoNowAdd  bool              `yaml:"auto_now_add,omitempty"`
	AutoNow     bool              `yaml:"auto_now,omitempty"`
}

// Hidden reports whether the field is excluded from the GraphQL schema
// with `tags: {graphql: "-"}`.
func (f Field) Hidden() bool {
	return f.Tags["graphql"] == "-"
}

// Enum declares a named set of values that fields may use as their type.
type Enum struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Values      []string `yaml:"values"`
}

// Index represents a database index definition
type Index struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
	Where   string   `yaml:"where,omitempty"`
	Type    string   `yaml:"type,omitempty"`
}

// Relationship represents a relationship between resources
type Relationship struct {
	Name        string `yaml:"name"`         // e.g. "Author", "Comments"
	Type        string `yaml:"type"`         // "belongs_to" or "has_many"
	Model       string `yaml:"model"`        // target model, e.g. "User"
	ForeignKey  string `yaml:"foreign_key"`  // e.g. "author_id"
	APILoadable bool   `yaml:"api_loadable"` // allow loading via API includes
}

// Relationship types
const (
	BelongsTo = "belongs_to"
	HasMany   = "has_many"
)

// EnumNamed returns the enum declared with the given name, or nil.
func (d *Definition) EnumNamed(name string) *Enum {
	for i := range d.Spec.Enums {
		if d.Spec.Enums[i].Name == name {
			return &d.Spec.Enums[i]
		}
	}
	return nil
}

// PrimaryKey returns the first primary key field, or nil.
func (d *Definition) PrimaryKey() *Field {
	for i := range d.Spec.Fields {
		if d.Spec.Fields[i].PrimaryKey {
			return &d.Spec.Fields[i]
		}
	}
	return nil
}

// Parse reads and validates a schema file from fsys
func Parse(fsys afero.Fs, path string) (*Definition, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	def, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Path = path
	return def, nil
}

// ParseBytes reads and validates schema from bytes
func ParseBytes(data []byte) (*Definition, error) {
	// First pass: parse with node API to get line numbers
	var rootNode yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&rootNode); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	lineMap := make(map[string]int)
	extractLineNumbers(&rootNode, "", lineMap)

	// Second pass: strict parsing catches misspelled keys
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse schema (check for unknown/misspelled fields): %w", err)
	}

	if err := ValidateWithLineNumbers(&def, lineMap); err != nil {
		return nil, err
	}

	return &def, nil
}

// extractLineNumbers walks the YAML node tree and builds a map of field paths to line numbers
func extractLineNumbers(node *yaml.Node, path string, lineMap map[string]int) {
	if node == nil {
		return
	}

	if path != "" {
		lineMap[path] = node.Line
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			extractLineNumbers(node.Content[0], path, lineMap)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			newPath := key
			if path != "" {
				newPath = path + "." + key
			}
			extractLineNumbers(node.Content[i+1], newPath, lineMap)
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			extractLineNumbers(child, fmt.Sprintf("%s.%d", path, i), lineMap)
		}
	}
}
