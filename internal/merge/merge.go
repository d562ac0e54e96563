// Package merge adds desired fields to an existing GraphQL document without
// disturbing anything already there.
//
// Existing definitions keep their order, fields, types, descriptions and
// comments. Missing objects are appended; present objects only gain fields
// whose names they do not have yet. A name collision keeps the existing
// field (first write wins).
package merge

import (
	"sort"

	"github.com/simonhull/firebird-suite/quill/internal/descriptor"
	"github.com/simonhull/firebird-suite/quill/internal/graphql"
)

// Result is the merged document and a record of what changed.
type Result struct {
	Document *graphql.Document
	Objects  []ObjectChange
}

// ObjectChange describes what the merge did to one object.
type ObjectChange struct {
	Name    string
	Extend  bool
	Created bool     // the definition was synthesized
	Added   []string // field names appended, in order
	Skipped []string // desired names already present
}

// Changed reports whether the merge added anything.
func (r *Result) Changed() bool {
	for _, o := range r.Objects {
		if len(o.Added) > 0 || o.Created {
			return true
		}
	}
	return false
}

// AddedCount returns the number of fields appended across all objects.
func (r *Result) AddedCount() int {
	n := 0
	for _, o := range r.Objects {
		n += len(o.Added)
	}
	return n
}

// Merge is MergeOrdered with objects visited in name order.
func Merge(existing *graphql.Document, desired map[string][]descriptor.Field) *Result {
	order := make([]string, 0, len(desired))
	for name := range desired {
		order = append(order, name)
	}
	sort.Strings(order)
	return MergeOrdered(existing, order, desired)
}

// MergeOrdered merges desired into a copy of existing, visiting objects in
// order. Names in order without desired fields are ignored, and desired
// objects missing from order are never visited. existing is not modified.
func MergeOrdered(existing *graphql.Document, order []string, desired map[string][]descriptor.Field) *Result {
	doc := existing.Clone()
	res := &Result{Document: doc}

	for _, name := range order {
		fields := desired[name]
		if len(fields) == 0 {
			continue
		}
		extend := false
		for _, f := range fields {
			if f.Extends {
				extend = true
				break
			}
		}

		change := ObjectChange{Name: name, Extend: extend}
		def := doc.Lookup(name, extend)
		if def == nil {
			def = synthesize(name, extend, fields)
			doc.Append(def)
			change.Created = true
		}

		for _, f := range fields {
			if def.HasField(f.FieldName) {
				if !change.Created {
					change.Skipped = append(change.Skipped, f.FieldName)
				}
				continue
			}
			def.Fields = append(def.Fields, &graphql.Field{
				Name:        f.FieldName,
				Type:        f.FieldType,
				Args:        f.Args,
				Description: f.Description,
			})
			change.Added = append(change.Added, f.FieldName)
		}
		res.Objects = append(res.Objects, change)
	}
	return res
}

func synthesize(name string, extend bool, fields []descriptor.Field) *graphql.Definition {
	def := &graphql.Definition{Kind: kindOf(fields[0].ObjectType), Name: name, Extend: extend}
	if !extend {
		for _, f := range fields {
			if f.ObjectDescription != "" {
				def.Description = f.ObjectDescription
				break
			}
		}
	}
	return def
}

func kindOf(t descriptor.ObjectType) graphql.Kind {
	switch t {
	case descriptor.Input:
		return graphql.KindInput
	case descriptor.Enum:
		return graphql.KindEnum
	default:
		return graphql.KindObject
	}
}
