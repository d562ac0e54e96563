package storage

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingFs fails every Save of one file.
type failingFs struct {
	*Dir
	failOn string
}

func (f *failingFs) Save(name string, data []byte) error {
	if name == f.failOn {
		return errors.New("disk full")
	}
	return f.Dir.Save(name, data)
}

func TestTransactionSuccess(t *testing.T) {
	d := NewDir(afero.NewMemMapFs(), "")
	tx := NewTransaction(d)
	tx.Stage("a.graphql", []byte("content1"))
	tx.Stage("b.graphql", []byte("content2"))

	require.NoError(t, tx.Commit())
	assert.Equal(t, []string{"a.graphql", "b.graphql"}, tx.Files())

	for name, want := range map[string]string{"a.graphql": "content1", "b.graphql": "content2"} {
		data, ok, err := d.Load(name)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, string(data))
	}
}

func TestTransactionStageReplaces(t *testing.T) {
	tx := NewTransaction(NewDir(afero.NewMemMapFs(), ""))
	tx.Stage("a.graphql", []byte("one"))
	tx.Stage("a.graphql", []byte("two"))
	assert.Equal(t, 1, tx.Len())
}

func TestTransactionRollbackRestoresAndRemoves(t *testing.T) {
	d := NewDir(afero.NewMemMapFs(), "")
	require.NoError(t, d.Save("existing.graphql", []byte("original")))

	fs := &failingFs{Dir: d, failOn: "broken.graphql"}
	tx := NewTransaction(fs)
	tx.Stage("existing.graphql", []byte("changed"))
	tx.Stage("new.graphql", []byte("created"))
	tx.Stage("broken.graphql", []byte("never"))

	err := tx.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Contains(t, err.Error(), "broken.graphql")

	data, ok, err := d.Load("existing.graphql")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "original", string(data))

	_, ok, err = d.Load("new.graphql")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionCannotCommitTwice(t *testing.T) {
	tx := NewTransaction(NewDir(afero.NewMemMapFs(), ""))
	tx.Stage("a.graphql", []byte("x"))

	require.NoError(t, tx.Commit())
	require.Error(t, tx.Commit())
}
