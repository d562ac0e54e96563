package graphql

import (
	"strings"
)

const indent = "  "

// Print renders a Document as canonical SDL: two-space indentation, one
// blank line between definitions, descriptions and # comments kept in
// place (own-line, end-of-line and inside argument lists), and a trailing
// newline. Print(Parse(Print(d))) == Print(d).
func Print(doc *Document) string {
	var b strings.Builder
	for i, def := range doc.Definitions {
		if i > 0 {
			b.WriteString("\n")
		}
		printDefinition(&b, def)
	}
	if len(doc.TrailingComments) > 0 {
		if len(doc.Definitions) > 0 {
			b.WriteString("\n")
		}
		writeComments(&b, "", doc.TrailingComments)
	}
	return b.String()
}

func printDefinition(b *strings.Builder, def *Definition) {
	writeComments(b, "", def.Comments)
	writeDescription(b, "", def.Description)
	writeComments(b, "", def.AfterDescription)
	if def.Extend {
		b.WriteString("extend ")
	}

	switch def.Kind {
	case KindDirective:
		b.WriteString("directive @")
		b.WriteString(def.Name)
		b.WriteString(def.Args)
		if def.Repeatable {
			b.WriteString(" repeatable")
		}
		b.WriteString(" on ")
		b.WriteString(strings.Join(def.Types, " | "))
		writeInline(b, def.Inline)
		b.WriteString("\n")
		return
	case KindSchema:
		b.WriteString("schema")
	default:
		b.WriteString(def.Kind.Keyword())
		b.WriteString(" ")
		b.WriteString(def.Name)
	}

	if len(def.Implements) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(def.Implements, " & "))
	}
	if def.Directives != "" {
		b.WriteString(" ")
		b.WriteString(def.Directives)
	}
	if def.Kind == KindUnion && len(def.Types) > 0 {
		b.WriteString(" = ")
		b.WriteString(strings.Join(def.Types, " | "))
	}

	if len(def.Fields) == 0 && len(def.Trailing) == 0 {
		writeInline(b, def.Inline)
		b.WriteString("\n")
		return
	}

	b.WriteString(" {")
	writeInline(b, def.Inline)
	b.WriteString("\n")
	for _, f := range def.Fields {
		printField(b, f)
	}
	writeComments(b, indent, def.Trailing)
	b.WriteString("}")
	writeInline(b, def.ClosingInline)
	b.WriteString("\n")
}

func printField(b *strings.Builder, f *Field) {
	writeComments(b, indent, f.Comments)
	writeDescription(b, indent, f.Description)
	writeComments(b, indent, f.AfterDescription)
	b.WriteString(indent)
	b.WriteString(f.Name)
	b.WriteString(strings.ReplaceAll(f.Args, "\n", "\n"+indent))
	if f.Type != "" {
		b.WriteString(": ")
		b.WriteString(f.Type)
	}
	if f.Default != "" {
		b.WriteString(" = ")
		b.WriteString(f.Default)
	}
	if f.Directives != "" {
		b.WriteString(" ")
		b.WriteString(f.Directives)
	}
	writeInline(b, f.Inline)
	b.WriteString("\n")
}

func writeComments(b *strings.Builder, prefix string, comments []string) {
	for _, c := range comments {
		b.WriteString(prefix)
		b.WriteString("#")
		b.WriteString(c)
		b.WriteString("\n")
	}
}

func writeInline(b *strings.Builder, comment string) {
	if comment == "" {
		return
	}
	b.WriteString(" #")
	b.WriteString(comment)
}

func writeDescription(b *strings.Builder, prefix, desc string) {
	if desc == "" {
		return
	}
	if !strings.ContainsAny(desc, "\"\\\n\r") {
		b.WriteString(prefix)
		b.WriteString(`"`)
		b.WriteString(desc)
		b.WriteString("\"\n")
		return
	}

	b.WriteString(prefix)
	b.WriteString("\"\"\"\n")
	for _, l := range strings.Split(strings.ReplaceAll(desc, `"""`, `\"""`), "\n") {
		if strings.TrimSpace(l) != "" {
			b.WriteString(prefix)
			b.WriteString(l)
		}
		b.WriteString("\n")
	}
	b.WriteString(prefix)
	b.WriteString("\"\"\"\n")
}
