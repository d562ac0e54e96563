package graphql

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// Parse reads SDL text into a Document. Empty or whitespace-only input is an
// empty Document. Syntax errors, duplicate definitions and duplicate fields
// are reported as *ParseError naming the file.
func Parse(name string, src []byte) (*Document, error) {
	if strings.TrimSpace(string(src)) == "" {
		return &Document{}, nil
	}

	source := &ast.Source{Name: name, Input: string(src)}
	sd, err := parser.ParseSchema(source)
	if err != nil {
		return nil, newParseError(name, err)
	}

	var entries []entry
	for _, s := range sd.Schema {
		entries = append(entries, entry{pos: s.Position, schema: s})
	}
	for _, s := range sd.SchemaExtension {
		entries = append(entries, entry{pos: s.Position, schema: s, extend: true})
	}
	for _, d := range sd.Directives {
		entries = append(entries, entry{pos: d.Position, directive: d})
	}
	for _, d := range sd.Definitions {
		entries = append(entries, entry{pos: d.Position, typ: d})
	}
	for _, d := range sd.Extensions {
		entries = append(entries, entry{pos: d.Position, typ: d, extend: true})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return offset(entries[i].pos) < offset(entries[j].pos)
	})

	c := newCommenter(source)
	doc := &Document{Definitions: make([]*Definition, 0, len(entries))}
	seen := make(map[string]bool)
	for _, e := range entries {
		def, fieldPos := c.definition(e)
		if err := checkFields(name, def, fieldPos); err != nil {
			return nil, err
		}
		if def.Extend || def.Kind == KindSchema {
			doc.Append(def)
			continue
		}
		key := def.Name
		if def.Kind == KindDirective {
			key = "@" + def.Name
		}
		if seen[key] {
			return nil, positionedError(name, e.pos, fmt.Sprintf("duplicate definition %q", def.Name))
		}
		seen[key] = true
		doc.Append(def)
	}
	doc.TrailingComments = c.take(sd.Comment)

	c.placeOrphans()
	c.finish()
	return doc, nil
}

// entry is one top-level AST node; exactly one of schema, directive and
// typ is set.
type entry struct {
	pos       *ast.Position
	extend    bool
	schema    *ast.SchemaDefinition
	directive *ast.DirectiveDefinition
	typ       *ast.Definition
}

func offset(pos *ast.Position) int {
	if pos == nil {
		return 0
	}
	return pos.Start
}

func newParseError(name string, err error) *ParseError {
	pe := &ParseError{File: name, Message: err.Error(), Err: err}
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) {
		pe.Message = gerr.Message
		if len(gerr.Locations) > 0 {
			pe.Line = gerr.Locations[0].Line
			pe.Column = gerr.Locations[0].Column
		}
	}
	return pe
}

func positionedError(name string, pos *ast.Position, msg string) *ParseError {
	pe := &ParseError{File: name, Message: msg, Err: errors.New(msg)}
	if pos != nil {
		pe.Line = pos.Line
		pe.Column = pos.Column
	}
	return pe
}

func checkFields(name string, def *Definition, positions []*ast.Position) error {
	seen := make(map[string]bool, len(def.Fields))
	for i, f := range def.Fields {
		if seen[f.Name] {
			var pos *ast.Position
			if i < len(positions) {
				pos = positions[i]
			}
			return positionedError(name, pos, fmt.Sprintf("duplicate field %q in %s %s", f.Name, def.Kind, def.Name))
		}
		seen[f.Name] = true
	}
	return nil
}

func kindOf(k ast.DefinitionKind) Kind {
	switch k {
	case ast.InputObject:
		return KindInput
	case ast.Interface:
		return KindInterface
	case ast.Enum:
		return KindEnum
	case ast.Scalar:
		return KindScalar
	case ast.Union:
		return KindUnion
	default:
		return KindObject
	}
}

// definition converts e and attaches its comments. It returns the field
// positions for duplicate reporting.
func (c *commenter) definition(e entry) (*Definition, []*ast.Position) {
	switch {
	case e.schema != nil:
		return c.schemaDefinition(e.schema, e.extend)
	case e.directive != nil:
		return c.directiveDefinition(e.directive), nil
	default:
		return c.typeDefinition(e.typ, e.extend)
	}
}

func (c *commenter) typeDefinition(d *ast.Definition, extend bool) (*Definition, []*ast.Position) {
	def := &Definition{
		Kind:        kindOf(d.Kind),
		Name:        d.Name,
		Extend:      extend,
		Description: d.Description,
		Implements:  append([]string(nil), d.Interfaces...),
		Directives:  renderDirectives(d.Directives),
		Types:       append([]string(nil), d.Types...),
	}
	def.Comments, def.AfterDescription = c.documented(d.BeforeDescriptionComment, d.AfterDescriptionComment, d.Description)
	c.own(d.Position, &def.Comments, &def.Inline, nil)
	c.slot = &def.Inline

	var positions []*ast.Position
	if def.Kind == KindEnum {
		for _, v := range d.EnumValues {
			field := &Field{
				Name:        v.Name,
				Directives:  renderDirectives(v.Directives),
				Description: v.Description,
			}
			field.Comments, field.AfterDescription = c.documented(v.BeforeDescriptionComment, v.AfterDescriptionComment, v.Description)
			c.own(v.Position, &field.Comments, &field.Inline, nil)
			c.slot = &field.Inline
			def.Fields = append(def.Fields, field)
			positions = append(positions, v.Position)
		}
	} else {
		for _, f := range d.Fields {
			field := &Field{
				Name:        f.Name,
				Type:        f.Type.String(),
				Directives:  renderDirectives(f.Directives),
				Description: f.Description,
			}
			if f.DefaultValue != nil {
				field.Default = f.DefaultValue.String()
			}
			field.Comments, field.AfterDescription = c.documented(f.BeforeDescriptionComment, f.AfterDescriptionComment, f.Description)
			c.own(f.Position, &field.Comments, &field.Inline, nil)
			c.arguments(f.Arguments, &field.Args)
			c.slot = &field.Inline
			def.Fields = append(def.Fields, field)
			positions = append(positions, f.Position)
		}
	}

	c.closeDefinition(def, d.EndOfDefinitionComment)
	return def, positions
}

// closeDefinition takes the comments before "}". Anything on the line of
// the brace itself belongs to the definition's closing line.
func (c *commenter) closeDefinition(def *Definition, end *ast.CommentGroup) {
	if len(def.Fields) == 0 {
		return
	}
	def.Trailing = c.take(end)
	c.slot = &def.ClosingInline
}

func (c *commenter) schemaDefinition(s *ast.SchemaDefinition, extend bool) (*Definition, []*ast.Position) {
	def := &Definition{
		Kind:        KindSchema,
		Extend:      extend,
		Description: s.Description,
		Directives:  renderDirectives(s.Directives),
	}
	def.Comments, def.AfterDescription = c.documented(s.BeforeDescriptionComment, s.AfterDescriptionComment, s.Description)
	c.own(s.Position, &def.Comments, &def.Inline, nil)
	c.slot = &def.Inline

	var positions []*ast.Position
	for _, op := range s.OperationTypes {
		field := &Field{Name: string(op.Operation), Type: op.Type}
		field.Comments = c.take(op.Comment)
		c.own(op.Position, &field.Comments, &field.Inline, nil)
		c.slot = &field.Inline
		def.Fields = append(def.Fields, field)
		positions = append(positions, op.Position)
	}
	c.closeDefinition(def, s.EndOfDefinitionComment)
	return def, positions
}

func (c *commenter) directiveDefinition(d *ast.DirectiveDefinition) *Definition {
	def := &Definition{
		Kind:        KindDirective,
		Name:        d.Name,
		Description: d.Description,
		Repeatable:  d.IsRepeatable,
	}
	def.Comments, def.AfterDescription = c.documented(d.BeforeDescriptionComment, d.AfterDescriptionComment, d.Description)
	c.own(d.Position, &def.Comments, &def.Inline, nil)
	c.arguments(d.Arguments, &def.Args)
	c.slot = &def.Inline
	for _, loc := range d.Locations {
		def.Types = append(def.Types, string(loc))
	}
	return def
}

// argumentList collects an argument definition list and its comments; it
// is rendered into target once every comment is placed.
type argumentList struct {
	target  *string
	open    string // comment on the "(" line
	args    []*argument
	closing []string
}

type argument struct {
	def              *ast.ArgumentDefinition
	comments         []string
	afterDescription []string
	inline           string
}

func (c *commenter) arguments(args ast.ArgumentDefinitionList, target *string) {
	if len(args) == 0 {
		return
	}
	list := &argumentList{target: target}
	c.lists = append(c.lists, list)
	c.slot = &list.open
	for _, a := range args {
		arg := &argument{def: a}
		arg.comments, arg.afterDescription = c.documented(a.BeforeDescriptionComment, a.AfterDescriptionComment, a.Description)
		c.own(a.Position, &arg.comments, &arg.inline, &list.closing)
		c.slot = &arg.inline
		list.args = append(list.args, arg)
	}
}

func (l *argumentList) annotated() bool {
	if l.open != "" || len(l.closing) > 0 {
		return true
	}
	for _, a := range l.args {
		if len(a.comments) > 0 || len(a.afterDescription) > 0 || a.inline != "" {
			return true
		}
	}
	return false
}

// render prints the list on one line, or one argument per line when it
// carries comments. Multi-line lists are indented relative to their owner.
func (l *argumentList) render() string {
	if len(l.args) == 0 {
		return ""
	}
	if !l.annotated() {
		parts := make([]string, 0, len(l.args))
		for _, a := range l.args {
			s := argumentSignature(a.def)
			if a.def.Description != "" {
				s = quote(a.def.Description) + " " + s
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}

	var b strings.Builder
	b.WriteString("(")
	if l.open != "" {
		b.WriteString(" #" + l.open)
	}
	b.WriteString("\n")
	for _, a := range l.args {
		writeComments(&b, indent, a.comments)
		if a.def.Description != "" {
			b.WriteString(indent + quote(a.def.Description) + "\n")
			writeComments(&b, indent, a.afterDescription)
		}
		b.WriteString(indent + argumentSignature(a.def))
		if a.inline != "" {
			b.WriteString(" #" + a.inline)
		}
		b.WriteString("\n")
	}
	writeComments(&b, indent, l.closing)
	b.WriteString(")")
	return b.String()
}

func argumentSignature(a *ast.ArgumentDefinition) string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteString(": ")
	b.WriteString(a.Type.String())
	if a.DefaultValue != nil {
		b.WriteString(" = ")
		b.WriteString(a.DefaultValue.String())
	}
	if dirs := renderDirectives(a.Directives); dirs != "" {
		b.WriteString(" ")
		b.WriteString(dirs)
	}
	return b.String()
}

func renderDirectives(dirs ast.DirectiveList) string {
	if len(dirs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(dirs))
	for _, d := range dirs {
		s := "@" + d.Name
		if len(d.Arguments) > 0 {
			args := make([]string, 0, len(d.Arguments))
			for _, a := range d.Arguments {
				args = append(args, a.Name+": "+a.Value.String())
			}
			s += "(" + strings.Join(args, ", ") + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// quote renders s as a single-line GraphQL string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
