// Package graphql holds quill's in-memory model of a GraphQL SDL file.
//
// A Document is an ordered list of definitions; object-like definitions own
// an ordered list of fields. The model is deliberately thin and independent
// of the parser's AST so the merger can be tested without any parsing:
//
//	doc, err := graphql.Parse("author.graphql", src)
//	...
//	out := graphql.Print(doc)
//
// Parse is backed by gqlparser; Print is quill's own canonical printer,
// which keeps descriptions and # comments where they were written,
// including comments at the end of a line and inside argument lists.
package graphql

// Kind identifies the SDL construct a Definition was declared with.
type Kind int

const (
	KindObject Kind = iota
	KindInput
	KindInterface
	KindEnum
	KindScalar
	KindUnion
	KindSchema
	KindDirective
)

// Keyword returns the SDL keyword introducing the definition.
func (k Kind) Keyword() string {
	switch k {
	case KindObject:
		return "type"
	case KindInput:
		return "input"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindScalar:
		return "scalar"
	case KindUnion:
		return "union"
	case KindSchema:
		return "schema"
	case KindDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return k.Keyword()
}

// Document is an ordered set of definitions.
type Document struct {
	Definitions      []*Definition
	TrailingComments []string // comments after the last definition
}

// Definition is one top-level SDL declaration.
//
// For enums, Fields hold the enum values (Type is empty). For schema
// definitions, Fields hold operation types (Name "query", Type "Query").
// For directive definitions, Args holds the argument list, Types holds the
// locations and Repeatable marks `repeatable`.
type Definition struct {
	Kind        Kind
	Name        string
	Extend      bool
	Description string
	Implements  []string
	Directives  string // rendered directive list, e.g. `@key(fields: "id")`
	Fields      []*Field
	Types       []string
	Args        string
	Repeatable  bool

	// Comments are stored without the leading '#'.
	Comments         []string // before the description
	AfterDescription []string // between the description and the keyword
	Inline           string   // ends the header line
	Trailing         []string // before the closing brace
	ClosingInline    string   // after the closing brace
}

// Field is one field, input value, enum value or operation type.
type Field struct {
	Name        string
	Type        string // type signature, e.g. "[Post!]!"
	Args        string // argument list including parentheses, e.g. "(id: ID!)"
	Default     string // default value literal for input fields
	Directives  string
	Description string

	Comments         []string
	AfterDescription []string
	Inline           string // ends the field's last line
}

// Lookup returns the first definition with the given name and extend flag.
func (d *Document) Lookup(name string, extend bool) *Definition {
	for _, def := range d.Definitions {
		if def.Name == name && def.Extend == extend && def.Kind != KindSchema && def.Kind != KindDirective {
			return def
		}
	}
	return nil
}

// Append adds a definition at the end of the document.
func (d *Document) Append(def *Definition) {
	d.Definitions = append(d.Definitions, def)
}

// Clone returns a deep copy; the merger never mutates its input.
func (d *Document) Clone() *Document {
	if d == nil {
		return &Document{}
	}
	out := &Document{
		Definitions:      make([]*Definition, 0, len(d.Definitions)),
		TrailingComments: append([]string(nil), d.TrailingComments...),
	}
	for _, def := range d.Definitions {
		out.Definitions = append(out.Definitions, def.Clone())
	}
	return out
}

// Field returns the field with the given name, or nil.
func (def *Definition) Field(name string) *Field {
	for _, f := range def.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasField reports whether a field with the given name exists.
func (def *Definition) HasField(name string) bool {
	return def.Field(name) != nil
}

// FieldNames returns field names in declaration order.
func (def *Definition) FieldNames() []string {
	names := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns a deep copy of the definition.
func (def *Definition) Clone() *Definition {
	c := *def
	c.Comments = append([]string(nil), def.Comments...)
	c.AfterDescription = append([]string(nil), def.AfterDescription...)
	c.Trailing = append([]string(nil), def.Trailing...)
	c.Implements = append([]string(nil), def.Implements...)
	c.Types = append([]string(nil), def.Types...)
	c.Fields = make([]*Field, len(def.Fields))
	for i, f := range def.Fields {
		fc := *f
		fc.Comments = append([]string(nil), f.Comments...)
		fc.AfterDescription = append([]string(nil), f.AfterDescription...)
		c.Fields[i] = &fc
	}
	return &c
}
