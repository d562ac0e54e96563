package storage

import (
	"errors"
	"fmt"
)

// Transaction stages file writes and applies them together. If any write
// fails, files already written are restored to their previous content (or
// removed when they did not exist and the store is a Remover).
type Transaction struct {
	fs         Fs
	operations []fileOperation
	committed  bool
}

type fileOperation struct {
	name    string
	content []byte
}

type previous struct {
	name    string
	content []byte
	existed bool
}

// NewTransaction creates an empty transaction against fs.
func NewTransaction(fs Fs) *Transaction {
	return &Transaction{fs: fs}
}

// Stage queues a write (doesn't write yet). Staging the same name twice
// keeps the last content.
func (t *Transaction) Stage(name string, content []byte) {
	for i := range t.operations {
		if t.operations[i].name == name {
			t.operations[i].content = content
			return
		}
	}
	t.operations = append(t.operations, fileOperation{name: name, content: content})
}

// Files returns the staged names in staging order.
func (t *Transaction) Files() []string {
	names := make([]string, len(t.operations))
	for i, op := range t.operations {
		names[i] = op.name
	}
	return names
}

// Len returns the number of staged files.
func (t *Transaction) Len() int {
	return len(t.operations)
}

// Commit writes all staged files. On failure every file written so far is
// rolled back and the write error is returned, joined with any rollback
// errors.
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}

	written := make([]previous, 0, len(t.operations))
	for _, op := range t.operations {
		old, existed, err := t.fs.Load(op.name)
		if err != nil {
			return errors.Join(wrapIO("read", op.name, err), t.rollback(written))
		}
		if err := t.fs.Save(op.name, op.content); err != nil {
			return errors.Join(wrapIO("write", op.name, err), t.rollback(written))
		}
		written = append(written, previous{name: op.name, content: old, existed: existed})
	}

	t.committed = true
	return nil
}

// rollback restores written files in reverse order.
func (t *Transaction) rollback(written []previous) error {
	var errs []error
	for i := len(written) - 1; i >= 0; i-- {
		p := written[i]
		if p.existed {
			if err := t.fs.Save(p.name, p.content); err != nil {
				errs = append(errs, fmt.Errorf("rollback: %w", wrapIO("restore", p.name, err)))
			}
			continue
		}
		if r, ok := t.fs.(Remover); ok {
			if err := r.Remove(p.name); err != nil {
				errs = append(errs, fmt.Errorf("rollback: %w", wrapIO("remove", p.name, err)))
			}
		}
	}
	return errors.Join(errs...)
}

func wrapIO(op, name string, err error) error {
	if errors.Is(err, ErrIO) {
		return err
	}
	return &IOError{Op: op, File: name, Err: err}
}
