package synchronizer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/simonhull/firebird-suite/quill/internal/descriptor"
	"github.com/simonhull/firebird-suite/quill/internal/graphql"
	"github.com/simonhull/firebird-suite/quill/internal/ledger"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
	"github.com/simonhull/firebird-suite/quill/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authorBase = `apiVersion: v1
kind: Resource
name: Author
spec:
  fields:
    - name: id
      type: uuid.UUID
      primary_key: true
`

const authorWithName = authorBase + `    - name: first_name
      type: string
`

const postBase = `apiVersion: v1
kind: Resource
name: Post
spec:
  fields:
    - name: id
      type: int64
      primary_key: true
`

const scenarioA = `type Author {
  id: ID!
}

input SaveAuthorInput {
  id: ID
}

type SaveAuthorResult {
  author: Author
}
`

const scenarioB = `type Author {
  id: ID!
  firstName: String!
}

input SaveAuthorInput {
  id: ID
  firstName: String
}

type SaveAuthorResult {
  author: Author
}
`

func resource(t *testing.T, src string) *schema.Definition {
	t.Helper()
	def, err := schema.ParseBytes([]byte(src))
	require.NoError(t, err)
	return def
}

func resources(t *testing.T, srcs ...string) []*schema.Definition {
	t.Helper()
	defs := make([]*schema.Definition, 0, len(srcs))
	for _, src := range srcs {
		defs = append(defs, resource(t, src))
	}
	return defs
}

func newStore() *storage.Dir {
	return storage.NewDir(afero.NewMemMapFs(), "graph/schema")
}

func newSync(fs storage.Fs) *Synchronizer {
	return New(fs, Options{Descriptors: descriptor.Options{Extension: "graphql"}, Workers: 2})
}

func read(t *testing.T, fs storage.Fs, name string) string {
	t.Helper()
	data, ok, err := fs.Load(name)
	require.NoError(t, err)
	require.True(t, ok, "%s should exist", name)
	return string(data)
}

func loadLedger(t *testing.T, fs storage.Fs) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Load(fs, ledger.DefaultPath)
	require.NoError(t, err)
	return l
}

func TestScenarioANewEntity(t *testing.T) {
	fs := newStore()

	report, err := newSync(fs).Synchronize(context.Background(), resources(t, authorBase))
	require.NoError(t, err)

	assert.Equal(t, scenarioA, read(t, fs, "author.graphql"))
	assert.Equal(t, 3, report.Pending)
	assert.Equal(t, 3, report.Recorded)
	require.Len(t, report.Files, 1)
	assert.True(t, report.Files[0].Created)

	assert.Equal(t, `{
  "Author": [
    "id"
  ],
  "SaveAuthorInput": [
    "id"
  ],
  "SaveAuthorResult": [
    "author"
  ],
  "files": [
    "author.graphql"
  ]
}
`, read(t, fs, ledger.DefaultPath))
}

func TestScenarioBNewField(t *testing.T) {
	fs := newStore()
	syncer := newSync(fs)

	_, err := syncer.Synchronize(context.Background(), resources(t, authorBase))
	require.NoError(t, err)

	report, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	assert.Equal(t, scenarioB, read(t, fs, "author.graphql"))
	assert.Equal(t, 2, report.Pending)
	assert.Equal(t, 2, report.AddedFields())

	l := loadLedger(t, fs)
	assert.True(t, l.HasBeenInserted("Author", "firstName"))
	assert.True(t, l.HasBeenInserted("SaveAuthorInput", "firstName"))
}

func TestScenarioCKeepsCustomFields(t *testing.T) {
	fs := newStore()
	require.NoError(t, fs.Save("author.graphql", []byte("type Author {\n  id: ID!\n  customField: String\n}\n")))

	_, err := newSync(fs).Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	assert.Equal(t, `type Author {
  id: ID!
  customField: String
  firstName: String!
}

input SaveAuthorInput {
  id: ID
  firstName: String
}

type SaveAuthorResult {
  author: Author
}
`, read(t, fs, "author.graphql"))

	// The file existed before, so it is not a whole-file emission.
	assert.False(t, loadLedger(t, fs).HasFile("author.graphql"))
}

const documentedAuthor = `# Owned by the API team
"An author"
type Author {
  "Primary key"
  id: ID! # primary key, do not touch
  # hand-added, keep
  customField: String # added by hand
  posts(
    # page size
    first: Int
  ): [String!]!
}
`

func TestKeepsFieldDocumentation(t *testing.T) {
	fs := newStore()
	require.NoError(t, fs.Save("author.graphql", []byte(documentedAuthor)))

	_, err := newSync(fs).Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	assert.Equal(t, `# Owned by the API team
"An author"
type Author {
  "Primary key"
  id: ID! # primary key, do not touch
  # hand-added, keep
  customField: String # added by hand
  posts(
    # page size
    first: Int
  ): [String!]!
  firstName: String!
}

input SaveAuthorInput {
  id: ID
  firstName: String
}

type SaveAuthorResult {
  author: Author
}
`, read(t, fs, "author.graphql"))
}

func TestKeepsFieldDocumentationWithGQLParserFormatter(t *testing.T) {
	fs := newStore()
	require.NoError(t, fs.Save("author.graphql", []byte(documentedAuthor)))
	syncer := New(fs, Options{Formatter: graphql.GQLParser{}, Descriptors: descriptor.Options{Extension: "graphql"}})

	_, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	out := read(t, fs, "author.graphql")
	for _, want := range []string{
		"# Owned by the API team",
		"An author",
		"Primary key",
		"# primary key, do not touch",
		"# hand-added, keep",
		"# added by hand",
		"# page size",
		"customField",
		"firstName",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGQLParserFormatterNeverDropsComments(t *testing.T) {
	fs := newStore()
	seed := "type Author {\n  id: ID!\n  posts(\n    first: Int\n    # cursor args end here\n  ): [String!]!\n}\n"
	require.NoError(t, fs.Save("author.graphql", []byte(seed)))
	syncer := New(fs, Options{Formatter: graphql.GQLParser{}, Descriptors: descriptor.Options{Extension: "graphql"}})

	report, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.Error(t, err)
	assert.ErrorIs(t, err, graphql.ErrCommentLost)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "author.graphql", report.Failed()[0].Name)
	assert.Equal(t, seed, read(t, fs, "author.graphql"))
	assert.False(t, loadLedger(t, fs).HasBeenInserted("Author", "firstName"))
}

func TestScenarioDNoResurrection(t *testing.T) {
	fs := newStore()
	syncer := newSync(fs)

	_, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	// A human removes firstName from both shapes.
	require.NoError(t, fs.Save("author.graphql", []byte(scenarioA)))
	before := read(t, fs, ledger.DefaultPath)

	report, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	assert.True(t, report.NoOp())
	assert.Equal(t, scenarioA, read(t, fs, "author.graphql"))
	assert.Equal(t, before, read(t, fs, ledger.DefaultPath))
}

func TestIdempotence(t *testing.T) {
	fs := newStore()
	syncer := newSync(fs)
	defs := resources(t, authorWithName, postBase)

	_, err := syncer.Synchronize(context.Background(), defs)
	require.NoError(t, err)
	author := read(t, fs, "author.graphql")
	post := read(t, fs, "post.graphql")
	history := read(t, fs, ledger.DefaultPath)

	report, err := syncer.Synchronize(context.Background(), defs)
	require.NoError(t, err)

	assert.True(t, report.NoOp())
	assert.Empty(t, report.Files)
	assert.Equal(t, author, read(t, fs, "author.graphql"))
	assert.Equal(t, post, read(t, fs, "post.graphql"))
	assert.Equal(t, history, read(t, fs, ledger.DefaultPath))
}

func TestLedgerOnlyGrows(t *testing.T) {
	fs := newStore()
	syncer := newSync(fs)

	_, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)
	before := loadLedger(t, fs)

	// Dropping a field from the schema never removes it from the ledger.
	_, err = syncer.Synchronize(context.Background(), resources(t, authorBase, postBase))
	require.NoError(t, err)
	after := loadLedger(t, fs)

	assert.True(t, after.Contains(before))
	assert.Greater(t, after.Len(), before.Len())
}

func TestParseErrorIsIsolated(t *testing.T) {
	fs := newStore()
	require.NoError(t, fs.Save("post.graphql", []byte("type Post {\n  id: ID!\n")))
	syncer := newSync(fs)

	report, err := syncer.Synchronize(context.Background(), resources(t, authorBase, postBase))
	require.Error(t, err)
	assert.True(t, errors.Is(err, graphql.ErrParse))
	assert.Contains(t, err.Error(), "post.graphql")

	// The healthy file is written and recorded; the broken one is neither.
	assert.Equal(t, scenarioA, read(t, fs, "author.graphql"))
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "post.graphql", report.Failed()[0].Name)

	l := loadLedger(t, fs)
	assert.True(t, l.HasBeenInserted("Author", "id"))
	assert.False(t, l.HasBeenInserted("Post", "id"))

	// Once fixed, the next run picks the file up.
	require.NoError(t, fs.Save("post.graphql", []byte("type Post {\n  id: ID!\n}\n")))
	_, err = syncer.Synchronize(context.Background(), resources(t, authorBase, postBase))
	require.NoError(t, err)
	assert.Contains(t, read(t, fs, "post.graphql"), "input SavePostInput {")
}

// failingStore fails every Save of one file.
type failingStore struct {
	*storage.Dir
	failOn string
}

func (f *failingStore) Save(name string, data []byte) error {
	if name == f.failOn {
		return &storage.IOError{Op: "write", File: name, Err: errors.New("disk full")}
	}
	return f.Dir.Save(name, data)
}

func TestCommitFailureRollsBack(t *testing.T) {
	dir := newStore()
	require.NoError(t, dir.Save("author.graphql", []byte("type Author {\n  id: ID!\n}\n")))
	fs := &failingStore{Dir: dir, failOn: "post.graphql"}

	_, err := newSync(fs).Synchronize(context.Background(), resources(t, authorWithName, postBase))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrIO))

	assert.Equal(t, "type Author {\n  id: ID!\n}\n", read(t, dir, "author.graphql"))
	exists, err := dir.Exists(ledger.DefaultPath)
	require.NoError(t, err)
	assert.False(t, exists, "no ledger may be saved after a failed commit")
}

func TestDryRunTouchesNothing(t *testing.T) {
	fs := newStore()
	syncer := New(fs, Options{DryRun: true})

	report, err := syncer.Synchronize(context.Background(), resources(t, authorBase))
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	require.Len(t, report.Changed(), 1)
	assert.Equal(t, scenarioA, string(report.Changed()[0].New))
	assert.Empty(t, report.Changed()[0].Old)

	for _, name := range []string{"author.graphql", ledger.DefaultPath} {
		exists, err := fs.Exists(name)
		require.NoError(t, err)
		assert.False(t, exists, name)
	}
}

func TestCorruptLedgerIsFatal(t *testing.T) {
	fs := newStore()
	require.NoError(t, fs.Save(ledger.DefaultPath, []byte("not json")))

	_, err := newSync(fs).Synchronize(context.Background(), resources(t, authorBase))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrCorruptLedger))

	exists, err := fs.Exists("author.graphql")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeletedFileIsNotRecreated(t *testing.T) {
	dir := newStore()
	syncer := newSync(dir)

	_, err := syncer.Synchronize(context.Background(), resources(t, authorBase))
	require.NoError(t, err)
	require.NoError(t, dir.Remove("author.graphql"))

	report, err := syncer.Synchronize(context.Background(), resources(t, authorWithName))
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.True(t, report.Files[0].Skipped)
	exists, err := dir.Exists("author.graphql")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, loadLedger(t, dir).HasBeenInserted("Author", "firstName"))
}

func TestCancelledContextWritesNothing(t *testing.T) {
	fs := newStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSync(fs).Synchronize(ctx, resources(t, authorBase, postBase))
	require.ErrorIs(t, err, context.Canceled)

	for _, name := range []string{"author.graphql", "post.graphql", ledger.DefaultPath} {
		exists, err := fs.Exists(name)
		require.NoError(t, err)
		assert.False(t, exists, name)
	}
}

func TestManyFilesInParallel(t *testing.T) {
	fs := newStore()
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}
	var defs []*schema.Definition
	for _, n := range names {
		defs = append(defs, resource(t, strings.Replace(authorBase, "name: Author", "name: "+n, 1)))
	}

	report, err := New(fs, Options{Workers: 3}).Synchronize(context.Background(), defs)
	require.NoError(t, err)
	require.Len(t, report.Files, len(names))

	for i, n := range names {
		file := descriptor.FileName(n, "graphql")
		assert.Equal(t, file, report.Files[i].Name)
		assert.Contains(t, read(t, fs, file), "type "+n+" {")
	}
}

func TestGoldenBlogPost(t *testing.T) {
	def, err := schema.Parse(afero.NewOsFs(), filepath.Join("testdata", "blog_post.firebird.yml"))
	require.NoError(t, err)

	fs := newStore()
	_, err = New(fs, Options{Descriptors: descriptor.DefaultOptions()}).
		Synchronize(context.Background(), []*schema.Definition{def})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "blogPost", []byte(read(t, fs, "blogPost.graphql")))
}
