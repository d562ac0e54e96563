package schema

import (
	"bytes"
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Field      string // Field path (e.g., "spec.fields[0].name")
	Message    string // Error message
	Suggestion string // Helpful suggestion (optional)
	Line       int    // Line number in YAML (if available)
}

// Error returns a formatted error message
func (e *ValidationError) Error() string {
	var msg string
	if e.Line > 0 {
		msg = fmt.Sprintf("validation error at %s (line %d): %s", e.Field, e.Line, e.Message)
	} else {
		msg = fmt.Sprintf("validation error at %s: %s", e.Field, e.Message)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error returns all validation errors formatted with clear separation
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "found %d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&buf, "  %d. %s\n", i+1, err.Error())
	}
	return buf.String()
}

// validGoTypes contains the scalar Go types a field may use
var validGoTypes = map[string]bool{
	"string":    true,
	"int":       true,
	"int8":      true,
	"int16":     true,
	"int32":     true,
	"int64":     true,
	"uint":      true,
	"uint8":     true,
	"uint16":    true,
	"uint32":    true,
	"uint64":    true,
	"float32":   true,
	"float64":   true,
	"bool":      true,
	"time.Time": true,
	"uuid.UUID": true,
}

// IsValidGoType checks if a type string is a supported Go type.
// Pointers and slices of supported types are accepted.
func IsValidGoType(typeStr string) bool {
	return validGoTypes[BaseType(typeStr)]
}

// IsPointerType checks if a type is a pointer (starts with *)
func IsPointerType(typeStr string) bool {
	return strings.HasPrefix(typeStr, "*")
}

// IsSliceType checks if a type is a slice (starts with [] after any pointer)
func IsSliceType(typeStr string) bool {
	return strings.HasPrefix(strings.TrimPrefix(typeStr, "*"), "[]")
}

// BaseType strips pointer and slice markers: "*[]*string" → "string"
func BaseType(typeStr string) string {
	t := typeStr
	for {
		switch {
		case strings.HasPrefix(t, "*"):
			t = t[1:]
		case strings.HasPrefix(t, "[]"):
			t = t[2:]
		default:
			return t
		}
	}
}

// Validate validates a parsed schema
func Validate(def *Definition) error {
	return ValidateWithLineNumbers(def, nil)
}

// ValidateWithLineNumbers validates a parsed schema with optional line number information
func ValidateWithLineNumbers(def *Definition, lineMap map[string]int) error {
	var errors ValidationErrors
	add := func(field, path, msg, suggestion string) {
		errors = append(errors, ValidationError{
			Field:      field,
			Message:    msg,
			Suggestion: suggestion,
			Line:       getLineNumber(lineMap, path),
		})
	}

	switch {
	case def.APIVersion == "":
		add("apiVersion", "apiVersion", "apiVersion is required", "")
	case def.APIVersion != "v1":
		add("apiVersion", "apiVersion", fmt.Sprintf("invalid apiVersion '%s'", def.APIVersion), "use 'v1'")
	}

	switch {
	case def.Kind == "":
		add("kind", "kind", "kind is required", "")
	case def.Kind != "Resource":
		add("kind", "kind", fmt.Sprintf("invalid kind '%s'", def.Kind), "use 'Resource'")
	}

	switch {
	case def.Name == "":
		add("name", "name", "name is required", "")
	case !isPascalCase(def.Name):
		add("name", "name", fmt.Sprintf("name '%s' should be in PascalCase", def.Name), "use PascalCase like 'User' or 'BlogPost'")
	}

	enumNames := make(map[string]int)
	for i, enum := range def.Spec.Enums {
		path := fmt.Sprintf("spec.enums.%d", i)
		field := fmt.Sprintf("spec.enums[%d]", i)

		if !isPascalCase(enum.Name) {
			add(field+".name", path+".name", fmt.Sprintf("enum name '%s' should be in PascalCase", enum.Name), "use PascalCase like 'PostStatus'")
		} else if first, dup := enumNames[enum.Name]; dup {
			add(field+".name", path+".name", fmt.Sprintf("duplicate enum '%s' (first defined at enums[%d])", enum.Name, first), "")
		} else {
			enumNames[enum.Name] = i
		}

		if len(enum.Values) == 0 {
			add(field+".values", path+".values", "at least one enum value is required", "")
		}
		seen := make(map[string]bool)
		for _, v := range enum.Values {
			if seen[v] {
				add(field+".values", path+".values", fmt.Sprintf("duplicate enum value '%s'", v), "")
			}
			seen[v] = true
		}
	}

	if len(def.Spec.Fields) == 0 {
		add("spec.fields", "spec.fields", "at least one field is required", "add fields to define your resource structure")
	} else {
		hasPrimaryKey := false
		fieldNames := make(map[string]int)

		for i, field := range def.Spec.Fields {
			fieldPath := fmt.Sprintf("spec.fields[%d]", i)
			linePath := fmt.Sprintf("spec.fields.%d", i)

			if field.Name == "" {
				add(fieldPath+".name", linePath+".name", "field name is required", "")
			} else if first, dup := fieldNames[field.Name]; dup {
				add(fieldPath+".name", linePath+".name",
					fmt.Sprintf("duplicate field name '%s' (first defined at fields[%d])", field.Name, first),
					"each field must have a unique name")
			} else {
				fieldNames[field.Name] = i
			}

			switch {
			case field.Type == "":
				add(fieldPath+".type", linePath+".type", "field type is required", "")
			case !IsValidGoType(field.Type) && !enumDeclared(def, BaseType(field.Type)):
				add(fieldPath+".type", linePath+".type",
					fmt.Sprintf("invalid type '%s'", field.Type),
					"use a Go type like 'string', 'int', 'bool', 'time.Time', or declare an enum in spec.enums")
			}

			if field.PrimaryKey {
				hasPrimaryKey = true
			}

			if (field.AutoNow || field.AutoNowAdd) && BaseType(field.Type) != "time.Time" {
				add(fieldPath, linePath+".type",
					fmt.Sprintf("auto_now/auto_now_add requires type to be 'time.Time' or '*time.Time', got '%s'", field.Type),
					"change type to 'time.Time' or remove auto_now/auto_now_add")
			}
		}

		if !hasPrimaryKey {
			add("spec.fields", "spec.fields", "at least one field must have primary_key: true", "mark your ID field with 'primary_key: true'")
		}
	}

	for i, index := range def.Spec.Indexes {
		indexPath := fmt.Sprintf("spec.indexes[%d]", i)
		linePath := fmt.Sprintf("spec.indexes.%d.columns", i)

		if len(index.Columns) == 0 {
			add(indexPath+".columns", linePath, "at least one column is required for index", "specify column names to index")
		}
		for _, col := range index.Columns {
			if findField(def.Spec.Fields, col) == nil {
				add(indexPath+".columns", linePath,
					fmt.Sprintf("column '%s' not found in fields", col),
					fmt.Sprintf("ensure '%s' is defined in spec.fields", col))
			}
		}
	}

	relationshipNames := make(map[string]int)
	for i, rel := range def.Spec.Relationships {
		relPath := fmt.Sprintf("spec.relationships[%d]", i)
		linePath := fmt.Sprintf("spec.relationships.%d", i)

		switch {
		case rel.Name == "":
			add(relPath+".name", linePath+".name", "relationship name is required", "")
		case !isPascalCase(rel.Name):
			add(relPath+".name", linePath+".name",
				fmt.Sprintf("relationship name '%s' should be in PascalCase", rel.Name),
				"use PascalCase like 'Author' or 'Comments'")
		default:
			if first, dup := relationshipNames[rel.Name]; dup {
				add(relPath+".name", linePath+".name",
					fmt.Sprintf("duplicate relationship name '%s' (first defined at relationships[%d])", rel.Name, first),
					"each relationship must have a unique name")
			} else {
				relationshipNames[rel.Name] = i
			}
			if findField(def.Spec.Fields, rel.Name) != nil {
				add(relPath+".name", linePath+".name",
					fmt.Sprintf("relationship name '%s' conflicts with field name", rel.Name),
					"choose a different relationship name or rename the field")
			}
		}

		if rel.Type != BelongsTo && rel.Type != HasMany {
			add(relPath+".type", linePath+".type",
				fmt.Sprintf("invalid relationship type '%s'", rel.Type),
				"use 'belongs_to' or 'has_many'")
		}

		switch {
		case rel.Model == "":
			add(relPath+".model", linePath+".model", "relationship model is required",
				"specify the target model name (e.g., 'User', 'Comment')")
		case !isPascalCase(rel.Model):
			add(relPath+".model", linePath+".model",
				fmt.Sprintf("model name '%s' should be in PascalCase", rel.Model),
				"use PascalCase like 'User' or 'Comment'")
		}

		if rel.ForeignKey == "" {
			add(relPath+".foreign_key", linePath+".foreign_key", "foreign_key is required",
				"specify the foreign key field name (e.g., 'author_id', 'post_id')")
		} else if rel.Type == BelongsTo && findField(def.Spec.Fields, rel.ForeignKey) == nil {
			add(relPath+".foreign_key", linePath+".foreign_key",
				fmt.Sprintf("foreign key field '%s' not found in fields", rel.ForeignKey),
				fmt.Sprintf("add a field named '%s' to spec.fields before defining this relationship", rel.ForeignKey))
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func enumDeclared(def *Definition, name string) bool {
	return def.EnumNamed(name) != nil
}

func findField(fields []Field, name string) *Field {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

// getLineNumber retrieves the line number for a given path
func getLineNumber(lineMap map[string]int, path string) int {
	if lineMap == nil {
		return 0
	}
	return lineMap[path]
}

// isPascalCase checks if a string is in PascalCase
func isPascalCase(s string) bool {
	if s == "" {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
