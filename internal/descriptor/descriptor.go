// Package descriptor turns resource definitions into the ordered list of
// GraphQL fields quill wants each target file to contain.
package descriptor

import (
	"fmt"

	"github.com/simonhull/firebird-suite/quill/internal/naming"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
)

// ObjectType is the shape a descriptor's object is synthesized as.
type ObjectType string

const (
	Output ObjectType = "output"
	Input  ObjectType = "input"
	Enum   ObjectType = "enum"
)

// Field describes one field quill wants in one object. Descriptors are
// values; within a run (ObjectName, FieldName) is unique.
type Field struct {
	File       string
	ObjectType ObjectType
	ObjectName string
	FieldName  string
	FieldType  string // empty for enum values
	Args       string // e.g. "(id: ID!)"
	Extends    bool

	Description       string // seeds the description of a new field
	ObjectDescription string // seeds the description of a new object
}

// Key identifies the descriptor within a run.
func (f Field) Key() string {
	return f.ObjectName + "." + f.FieldName
}

func (f Field) String() string {
	if f.FieldType == "" {
		return fmt.Sprintf("%s.%s", f.ObjectName, f.FieldName)
	}
	return fmt.Sprintf("%s.%s%s: %s", f.ObjectName, f.FieldName, f.Args, f.FieldType)
}

// Options controls what Derive emits.
type Options struct {
	// Extension of target files, without the dot. Defaults to "graphql".
	Extension string
	// Operations adds `extend type Query` and `extend type Mutation` fields.
	Operations bool
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{Extension: "graphql", Operations: true}
}

// FileName returns the target file for an entity, e.g. blogPost.graphql.
func FileName(entity, extension string) string {
	if extension == "" {
		extension = "graphql"
	}
	return naming.CamelCase(entity) + "." + extension
}

// DeriveAll derives descriptors for every definition, in order. A later
// descriptor with an already seen (ObjectName, FieldName) is dropped, so an
// enum shared by two resources lands in the file of the first one.
func DeriveAll(defs []*schema.Definition, opts Options) []Field {
	var out []Field
	seen := make(map[string]bool)
	for _, def := range defs {
		for _, f := range Derive(def, opts) {
			if seen[f.Key()] {
				continue
			}
			seen[f.Key()] = true
			out = append(out, f)
		}
	}
	return out
}
