package graphql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSynthesizedDocument(t *testing.T) {
	doc := &Document{}
	doc.Append(&Definition{
		Kind:        KindObject,
		Name:        "Author",
		Description: "Somebody who writes.",
		Fields: []*Field{
			{Name: "id", Type: "ID!"},
			{Name: "bio", Type: "String", Description: "Shown on the \"about\" page."},
		},
	})
	doc.Append(&Definition{
		Kind:   KindObject,
		Name:   "Query",
		Extend: true,
		Fields: []*Field{{Name: "author", Type: "Author", Args: "(id: ID!)"}},
	})

	want := `"Somebody who writes."
type Author {
  id: ID!
  """
  Shown on the "about" page.
  """
  bio: String
}

extend type Query {
  author(id: ID!): Author
}
`
	assert.Equal(t, want, Print(doc))
	assert.Equal(t, want, Print(mustParse(t, want)))
}

func TestPrintMultilineDescription(t *testing.T) {
	doc := &Document{Definitions: []*Definition{{
		Kind:        KindScalar,
		Name:        "DateTime",
		Description: "RFC 3339 timestamp.\n\nAlways UTC.",
	}}}

	out := Print(doc)
	assert.Equal(t, "\"\"\"\nRFC 3339 timestamp.\n\nAlways UTC.\n\"\"\"\nscalar DateTime\n", out)

	reparsed := mustParse(t, out)
	assert.Equal(t, "RFC 3339 timestamp.\n\nAlways UTC.", reparsed.Definitions[0].Description)
}

func TestCloneIsDeep(t *testing.T) {
	doc := mustParse(t, "# note\ntype A {\n  id: ID\n}\n")
	clone := doc.Clone()

	clone.Definitions[0].Fields[0].Type = "String"
	clone.Definitions[0].Comments[0] = "changed"
	clone.Append(&Definition{Kind: KindObject, Name: "B"})

	assert.Equal(t, "ID", doc.Definitions[0].Fields[0].Type)
	assert.Equal(t, []string{" note"}, doc.Definitions[0].Comments)
	assert.Len(t, doc.Definitions, 1)
}

func TestNilDocumentClone(t *testing.T) {
	var doc *Document
	assert.NotNil(t, doc.Clone())
}

func TestFormatterByName(t *testing.T) {
	f, err := FormatterByName("")
	require.NoError(t, err)
	assert.IsType(t, Builtin{}, f)

	f, err = FormatterByName("GQLParser")
	require.NoError(t, err)
	assert.IsType(t, GQLParser{}, f)

	_, err = FormatterByName("prettier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown formatter 'prettier'")
}

func TestBuiltinFormatterKeepsComments(t *testing.T) {
	out, err := Builtin{}.Format("a.graphql", []byte("type A {\n      # keep\n   id: ID\n}"))
	require.NoError(t, err)
	assert.Equal(t, "type A {\n  # keep\n  id: ID\n}\n", string(out))
}

func TestGQLParserFormatter(t *testing.T) {
	out, err := GQLParser{}.Format("a.graphql", []byte("type A { id: ID! name: String }"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "type A {"))

	doc := mustParse(t, string(out))
	assert.Equal(t, []string{"id", "name"}, doc.Lookup("A", false).FieldNames())

	_, err = GQLParser{}.Format("bad.graphql", []byte("type {"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestGQLParserFormatterKeepsComments(t *testing.T) {
	src := "# Owned by the API team\ntype A {\n  id: ID! # hand-added, keep\n  name: String\n}\n"

	out, err := GQLParser{}.Format("a.graphql", []byte(src))
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Owned by the API team")
	assert.Contains(t, string(out), "# hand-added, keep")
	assert.ElementsMatch(t, commentTexts("a.graphql", []byte(src)), commentTexts("a.graphql", out))
}

func TestGQLParserFormatterRefusesToDropComments(t *testing.T) {
	src := "type A {\n  f(\n    a: Int\n    # before the paren\n  ): Int\n}\n"

	_, err := GQLParser{}.Format("a.graphql", []byte(src))
	require.ErrorIs(t, err, ErrCommentLost)
	assert.Contains(t, err.Error(), "before the paren")
	assert.Contains(t, err.Error(), "a.graphql")
}

func TestMissingComments(t *testing.T) {
	assert.Empty(t, missingComments([]string{"a", "b"}, []string{"b", "a"}))
	assert.Equal(t, []string{"a"}, missingComments([]string{"a", "a"}, []string{"a"}))
	assert.Nil(t, missingComments(nil, []string{"x"}))
}
