package merge

import (
	"testing"

	"github.com/simonhull/firebird-suite/quill/internal/descriptor"
	"github.com/simonhull/firebird-suite/quill/internal/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(object, name, typ string) descriptor.Field {
	return descriptor.Field{
		File:       "author.graphql",
		ObjectType: descriptor.Output,
		ObjectName: object,
		FieldName:  name,
		FieldType:  typ,
	}
}

func parse(t *testing.T, src string) *graphql.Document {
	t.Helper()
	doc, err := graphql.Parse("author.graphql", []byte(src))
	require.NoError(t, err)
	return doc
}

func TestMergeIntoEmptyDocument(t *testing.T) {
	input := field("SaveAuthorInput", "id", "ID")
	input.ObjectType = descriptor.Input
	id := field("Author", "id", "ID!")
	id.ObjectDescription = "Somebody who writes."

	res := MergeOrdered(&graphql.Document{}, []string{"Author", "SaveAuthorInput"}, map[string][]descriptor.Field{
		"Author":          {id},
		"SaveAuthorInput": {input},
	})

	want := `"Somebody who writes."
type Author {
  id: ID!
}

input SaveAuthorInput {
  id: ID
}
`
	assert.Equal(t, want, graphql.Print(res.Document))
	assert.True(t, res.Changed())
	assert.Equal(t, 2, res.AddedCount())
	assert.True(t, res.Objects[0].Created)
}

func TestMergeKeepsCustomFieldsAndAppends(t *testing.T) {
	existing := parse(t, `type Author {
  id: ID!
  # hand written
  customField: String
}
`)
	res := Merge(existing, map[string][]descriptor.Field{
		"Author": {field("Author", "id", "ID!"), field("Author", "firstName", "String!")},
	})

	want := `type Author {
  id: ID!
  # hand written
  customField: String
  firstName: String!
}
`
	assert.Equal(t, want, graphql.Print(res.Document))
	require.Len(t, res.Objects, 1)
	assert.Equal(t, []string{"firstName"}, res.Objects[0].Added)
	assert.Equal(t, []string{"id"}, res.Objects[0].Skipped)
	assert.False(t, res.Objects[0].Created)
}

func TestMergeFirstWriteWins(t *testing.T) {
	existing := parse(t, `type Author {
  "Legal name"
  name: [String!] @deprecated
}
`)
	desired := field("Author", "name", "String!")
	desired.Description = "Display name"

	res := Merge(existing, map[string][]descriptor.Field{"Author": {desired}})

	f := res.Document.Lookup("Author", false).Field("name")
	assert.Equal(t, "[String!]", f.Type)
	assert.Equal(t, "Legal name", f.Description)
	assert.Equal(t, "@deprecated", f.Directives)
	assert.False(t, res.Changed())
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	existing := parse(t, "type Author {\n  id: ID!\n}\n")
	before := graphql.Print(existing)

	Merge(existing, map[string][]descriptor.Field{
		"Author": {field("Author", "name", "String!")},
		"Post":   {field("Post", "id", "ID!")},
	})

	assert.Equal(t, before, graphql.Print(existing))
}

func TestMergeExtensions(t *testing.T) {
	existing := parse(t, `type Query {
  ping: String
}

extend type Query {
  author(id: ID!): Author
}
`)
	authors := field("Query", "authors", "[Author!]!")
	authors.Extends = true
	author := field("Query", "author", "Author")
	author.Extends = true
	author.Args = "(id: ID!)"

	save := field("Mutation", "saveAuthor", "SaveAuthorResult")
	save.Extends = true
	save.Args = "(input: SaveAuthorInput!)"

	res := MergeOrdered(existing, []string{"Query", "Mutation"}, map[string][]descriptor.Field{
		"Query":    {author, authors},
		"Mutation": {save},
	})

	want := `type Query {
  ping: String
}

extend type Query {
  author(id: ID!): Author
  authors: [Author!]!
}

extend type Mutation {
  saveAuthor(input: SaveAuthorInput!): SaveAuthorResult
}
`
	assert.Equal(t, want, graphql.Print(res.Document))
	assert.Equal(t, []string{"ping"}, res.Document.Lookup("Query", false).FieldNames())
}

func TestMergeSynthesizesEnum(t *testing.T) {
	draft := field("PostStatus", "DRAFT", "")
	draft.ObjectType = descriptor.Enum
	published := field("PostStatus", "PUBLISHED", "")
	published.ObjectType = descriptor.Enum

	res := Merge(&graphql.Document{}, map[string][]descriptor.Field{"PostStatus": {draft, published}})
	assert.Equal(t, "enum PostStatus {\n  DRAFT\n  PUBLISHED\n}\n", graphql.Print(res.Document))
}

func TestMergeOrderedIgnoresUnknownNames(t *testing.T) {
	res := MergeOrdered(&graphql.Document{}, []string{"Missing"}, map[string][]descriptor.Field{})
	assert.Empty(t, res.Document.Definitions)
	assert.False(t, res.Changed())
}
