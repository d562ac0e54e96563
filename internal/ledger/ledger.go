// Package ledger records which (object, field) pairs quill has ever
// proposed. Entries are only added, never removed: a field recorded once is
// never inserted again, even if a human later deletes it from the file.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/simonhull/firebird-suite/quill/internal/storage"
)

// DefaultPath is the ledger file name, relative to the output directory.
const DefaultPath = ".history.json"

// FilesKey is reserved for whole files emitted once.
const FilesKey = "files"

// ErrCorruptLedger matches every *CorruptLedgerError with errors.Is.
var ErrCorruptLedger = errors.New("corrupt history ledger")

// CorruptLedgerError reports a ledger file that exists but cannot be decoded.
type CorruptLedgerError struct {
	Path string
	Err  error
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("history ledger %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptLedgerError) Unwrap() error { return e.Err }

func (e *CorruptLedgerError) Is(target error) bool { return target == ErrCorruptLedger }

// Ledger maps object names to the set of field names already synchronized.
// It is not safe for concurrent use.
type Ledger struct {
	entries map[string]map[string]struct{}
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]map[string]struct{})}
}

// Load reads the ledger at path. A missing file yields an empty ledger.
func Load(fs storage.Fs, path string) (*Ledger, error) {
	data, ok, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	l := New()
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return l, nil
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &CorruptLedgerError{Path: path, Err: err}
	}
	for object, fields := range raw {
		for _, field := range fields {
			l.RecordInsertion(object, field)
		}
	}
	return l, nil
}

// Save writes the whole ledger to path.
func (l *Ledger) Save(fs storage.Fs, path string) error {
	data, err := l.Bytes()
	if err != nil {
		return err
	}
	return fs.Save(path, data)
}

// Bytes encodes the ledger deterministically: sorted keys, sorted arrays,
// two-space indentation and a trailing newline.
func (l *Ledger) Bytes() ([]byte, error) {
	data, err := json.MarshalIndent(l.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// RecordInsertion adds field to object's set and reports whether it was new.
func (l *Ledger) RecordInsertion(object, field string) bool {
	set, ok := l.entries[object]
	if !ok {
		set = make(map[string]struct{})
		l.entries[object] = set
	}
	if _, seen := set[field]; seen {
		return false
	}
	set[field] = struct{}{}
	return true
}

// HasBeenInserted reports whether field was ever recorded for object.
func (l *Ledger) HasBeenInserted(object, field string) bool {
	_, ok := l.entries[object][field]
	return ok
}

// RecordFile marks a whole file as emitted.
func (l *Ledger) RecordFile(name string) bool {
	return l.RecordInsertion(FilesKey, name)
}

// HasFile reports whether name was ever emitted.
func (l *Ledger) HasFile(name string) bool {
	return l.HasBeenInserted(FilesKey, name)
}

// Objects returns the recorded object names, sorted, without FilesKey.
func (l *Ledger) Objects() []string {
	names := make([]string, 0, len(l.entries))
	for name := range l.entries {
		if name != FilesKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Fields returns the sorted field names recorded for object.
func (l *Ledger) Fields(object string) []string {
	return sortedKeys(l.entries[object])
}

// Files returns the sorted names of emitted files.
func (l *Ledger) Files() []string {
	return l.Fields(FilesKey)
}

// Len returns the number of recorded (object, field) pairs, files included.
func (l *Ledger) Len() int {
	n := 0
	for _, set := range l.entries {
		n += len(set)
	}
	return n
}

// Snapshot returns a sorted copy of the ledger contents.
func (l *Ledger) Snapshot() map[string][]string {
	out := make(map[string][]string, len(l.entries))
	for object, set := range l.entries {
		out[object] = sortedKeys(set)
	}
	return out
}

// Contains reports whether every entry of other is also in l.
func (l *Ledger) Contains(other *Ledger) bool {
	for object, set := range other.entries {
		for field := range set {
			if !l.HasBeenInserted(object, field) {
				return false
			}
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
