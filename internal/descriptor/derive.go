package descriptor

import (
	"strings"

	"github.com/simonhull/firebird-suite/quill/internal/naming"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
)

// scalarTypes maps Go base types to GraphQL scalars
var scalarTypes = map[string]string{
	"string":    "String",
	"int":       "Int",
	"int8":      "Int",
	"int16":     "Int",
	"int32":     "Int",
	"int64":     "Int",
	"uint":      "Int",
	"uint8":     "Int",
	"uint16":    "Int",
	"uint32":    "Int",
	"uint64":    "Int",
	"float32":   "Float",
	"float64":   "Float",
	"bool":      "Boolean",
	"time.Time": "DateTime",
	"uuid.UUID": "ID",
}

// GraphQLType maps a Go field type to a nullable GraphQL type. Unknown base
// types are assumed to be declared enums and keep their name.
func GraphQLType(goType string) string {
	base := schema.BaseType(goType)
	name, ok := scalarTypes[base]
	if !ok {
		name = base
	}
	if schema.IsSliceType(goType) {
		return "[" + name + "!]"
	}
	return name
}

func nonNull(t string) string {
	if strings.HasSuffix(t, "!") {
		return t
	}
	return t + "!"
}

// builder accumulates the fields of one object, ignoring repeated names.
type builder struct {
	base   Field
	fields []Field
	names  map[string]bool
}

func newBuilder(base Field) *builder {
	return &builder{base: base, names: make(map[string]bool)}
}

func (b *builder) add(name, typ, args, description string) {
	if b.names[name] {
		return
	}
	b.names[name] = true
	f := b.base
	f.FieldName = name
	f.FieldType = typ
	f.Args = args
	f.Description = description
	b.fields = append(b.fields, f)
}

// Derive returns the descriptors for one resource, ordered: the entity type
// (identity, primitives, enum fields, belongs_to, has_many), its enums,
// Save<Entity>Input, Save<Entity>Result, then the Query and Mutation
// extensions when enabled.
func Derive(def *schema.Definition, opts Options) []Field {
	if opts.Extension == "" {
		opts.Extension = "graphql"
	}
	file := FileName(def.Name, opts.Extension)
	entity := def.Name
	camel := naming.CamelCase(entity)

	var primitives, enums []schema.Field
	for _, f := range def.Spec.Fields {
		if f.Hidden() || f.PrimaryKey {
			continue
		}
		if def.EnumNamed(schema.BaseType(f.Type)) != nil {
			enums = append(enums, f)
		} else {
			primitives = append(primitives, f)
		}
	}
	pk := def.PrimaryKey()

	// Entity type
	out := newBuilder(Field{File: file, ObjectType: Output, ObjectName: entity, ObjectDescription: def.Spec.Description})
	if pk != nil && !pk.Hidden() {
		out.add(naming.CamelCase(pk.Name), "ID!", "", pk.Description)
	}
	for _, f := range primitives {
		out.add(naming.CamelCase(f.Name), outputType(f), "", f.Description)
	}
	if def.Spec.Timestamps {
		out.add("createdAt", "DateTime!", "", "")
		out.add("updatedAt", "DateTime!", "", "")
	}
	if def.Spec.SoftDeletes {
		out.add("deletedAt", "DateTime", "", "")
	}
	for _, f := range enums {
		out.add(naming.CamelCase(f.Name), outputType(f), "", f.Description)
	}
	for _, rel := range def.Spec.Relationships {
		if rel.Type != schema.BelongsTo {
			continue
		}
		typ := rel.Model
		if fk := lookupField(def, rel.ForeignKey); fk == nil || !nullable(*fk) {
			typ = nonNull(typ)
		}
		out.add(naming.CamelCase(rel.Name), typ, "", "")
	}
	for _, rel := range def.Spec.Relationships {
		if rel.Type == schema.HasMany {
			out.add(naming.CamelCase(rel.Name), "["+rel.Model+"!]!", "", "")
		}
	}
	fields := out.fields

	// Enums
	for _, e := range def.Spec.Enums {
		eb := newBuilder(Field{File: file, ObjectType: Enum, ObjectName: e.Name, ObjectDescription: e.Description})
		for _, v := range e.Values {
			eb.add(v, "", "", "")
		}
		fields = append(fields, eb.fields...)
	}

	// Save<Entity>Input: every field optional so partial updates work
	inputName := "Save" + entity + "Input"
	in := newBuilder(Field{File: file, ObjectType: Input, ObjectName: inputName})
	if pk != nil && !pk.Hidden() {
		in.add(naming.CamelCase(pk.Name), "ID", "", "")
	}
	for _, f := range primitives {
		if f.AutoNow || f.AutoNowAdd {
			continue
		}
		in.add(naming.CamelCase(f.Name), GraphQLType(f.Type), "", f.Description)
	}
	for _, f := range enums {
		in.add(naming.CamelCase(f.Name), GraphQLType(f.Type), "", f.Description)
	}
	fields = append(fields, in.fields...)

	// Save<Entity>Result
	resultName := "Save" + entity + "Result"
	res := newBuilder(Field{File: file, ObjectType: Output, ObjectName: resultName})
	res.add(camel, entity, "", "")
	fields = append(fields, res.fields...)

	if opts.Operations {
		list := naming.Pluralize(camel)
		if list == camel {
			list = camel + "List"
		}
		q := newBuilder(Field{File: file, ObjectType: Output, ObjectName: "Query", Extends: true})
		q.add(camel, entity, "(id: ID!)", "")
		q.add(list, "["+entity+"!]!", "", "")
		fields = append(fields, q.fields...)

		m := newBuilder(Field{File: file, ObjectType: Output, ObjectName: "Mutation", Extends: true})
		m.add("save"+entity, resultName, "(input: "+inputName+"!)", "")
		fields = append(fields, m.fields...)
	}

	return fields
}

func outputType(f schema.Field) string {
	t := GraphQLType(f.Type)
	if nullable(f) {
		return t
	}
	return nonNull(t)
}

func nullable(f schema.Field) bool {
	return schema.IsPointerType(f.Type) || f.Nullable
}

func lookupField(def *schema.Definition, name string) *schema.Field {
	for i := range def.Spec.Fields {
		if def.Spec.Fields[i].Name == name {
			return &def.Spec.Fields[i]
		}
	}
	return nil
}
