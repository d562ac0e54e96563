package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FileSuffix is the extension of resource schema files.
const FileSuffix = ".firebird.yml"

// ignoredDirs are never searched for schema files.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
}

// SkipDir reports whether a directory below the schemas root is ignored by
// Discover. A testdata directory is searched like any other.
func SkipDir(name string) bool {
	return ignoredDirs[name]
}

// Discover finds and parses every *.firebird.yml file below dir.
//
// Definitions are returned sorted by resource name. Parse and validation
// failures of individual files are collected and returned together so a
// single run reports every broken schema.
func Discover(fsys afero.Fs, dir string) ([]*Definition, error) {
	var paths []string
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && SkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(info.Name(), FileSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan schema directory %s: %w", dir, err)
	}

	var (
		defs []*Definition
		errs []error
		seen = make(map[string]string)
	)
	for _, path := range paths {
		def, err := Parse(fsys, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[def.Name]; dup {
			errs = append(errs, fmt.Errorf("resource %s is defined in both %s and %s", def.Name, prev, path))
			continue
		}
		seen[def.Name] = path
		defs = append(defs, def)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}
