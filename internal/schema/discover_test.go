package schema

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSchema = `apiVersion: v1
kind: Resource
name: %s
spec:
  fields:
    - name: id
      type: string
      primary_key: true
`

func writeSchema(t *testing.T, fsys afero.Fs, path, name string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(fmt.Sprintf(minimalSchema, name)), 0644))
}

func TestDiscover(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeSchema(t, fsys, "schemas/post.firebird.yml", "Post")
	writeSchema(t, fsys, "schemas/nested/author.firebird.yml", "Author")
	writeSchema(t, fsys, "schemas/vendor/ignored.firebird.yml", "Ignored")
	writeSchema(t, fsys, "schemas/testdata/fixture.firebird.yml", "Fixture")
	require.NoError(t, afero.WriteFile(fsys, "schemas/README.md", []byte("# schemas"), 0644))

	defs, err := Discover(fsys, "schemas")
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "Author", defs[0].Name)
	assert.Equal(t, "schemas/nested/author.firebird.yml", defs[0].Path)
	assert.Equal(t, "Fixture", defs[1].Name)
	assert.Equal(t, "Post", defs[2].Name)
}

func TestSkipDir(t *testing.T) {
	for _, name := range []string{"node_modules", "vendor", ".git"} {
		assert.True(t, SkipDir(name), name)
	}
	for _, name := range []string{"testdata", "nested", "schemas"} {
		assert.False(t, SkipDir(name), name)
	}
}

func TestDiscoverDuplicateResource(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeSchema(t, fsys, "schemas/a.firebird.yml", "Post")
	writeSchema(t, fsys, "schemas/b.firebird.yml", "Post")

	_, err := Discover(fsys, "schemas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resource Post is defined in both")
}

func TestDiscoverCollectsAllErrors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "schemas/a.firebird.yml", []byte("apiVersion: v2\nkind: Resource\nname: A\nspec:\n  fields: []\n"), 0644))
	require.NoError(t, afero.WriteFile(fsys, "schemas/b.firebird.yml", []byte("kind: ["), 0644))

	_, err := Discover(fsys, "schemas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schemas/a.firebird.yml")
	assert.Contains(t, err.Error(), "schemas/b.firebird.yml")
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(afero.NewMemMapFs(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan schema directory")
}
