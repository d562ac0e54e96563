// Package storage is the narrow file contract quill reads and writes
// through, plus an afero-backed implementation and a staging Transaction.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrIO matches every *IOError with errors.Is.
var ErrIO = errors.New("storage failure")

// IOError names the file and operation that failed.
type IOError struct {
	Op   string
	File string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.File, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// Fs is everything the synchronizer needs from storage.
type Fs interface {
	Exists(name string) (bool, error)
	// Load returns the content and true, or nil and false when name is absent.
	Load(name string) ([]byte, bool, error)
	Save(name string, data []byte) error
}

// Remover is implemented by stores that can delete files. Transactions use
// it to undo the creation of new files.
type Remover interface {
	Remove(name string) error
}

// Dir is an Fs rooted at a directory of an afero filesystem.
type Dir struct {
	fs afero.Fs
}

// NewDir returns a store whose names are relative to root. An empty root
// uses fsys as is.
func NewDir(fsys afero.Fs, root string) *Dir {
	if root != "" && root != "." {
		fsys = afero.NewBasePathFs(fsys, root)
	}
	return &Dir{fs: fsys}
}

// OS returns a Dir on the real filesystem.
func OS(root string) *Dir {
	return NewDir(afero.NewOsFs(), root)
}

func (d *Dir) Exists(name string) (bool, error) {
	ok, err := afero.Exists(d.fs, name)
	if err != nil {
		return false, &IOError{Op: "stat", File: name, Err: err}
	}
	return ok, nil
}

func (d *Dir) Load(name string) ([]byte, bool, error) {
	data, err := afero.ReadFile(d.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &IOError{Op: "read", File: name, Err: err}
	}
	return data, true, nil
}

// Save writes through a temporary sibling and a rename so readers never see
// a half-written file.
func (d *Dir) Save(name string, data []byte) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := d.fs.MkdirAll(dir, 0755); err != nil {
			return &IOError{Op: "create directory for", File: name, Err: err}
		}
	}

	tmp := name + ".tmp"
	if err := afero.WriteFile(d.fs, tmp, data, 0644); err != nil {
		return &IOError{Op: "write", File: name, Err: err}
	}
	if err := d.fs.Rename(tmp, name); err != nil {
		_ = d.fs.Remove(tmp)
		return &IOError{Op: "write", File: name, Err: err}
	}
	return nil
}

func (d *Dir) Remove(name string) error {
	if err := d.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "remove", File: name, Err: err}
	}
	return nil
}
