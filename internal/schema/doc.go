// Package schema provides parsing and validation for .firebird.yml resource
// schema files.
//
// Resource schemas are the domain model quill synchronizes GraphQL files
// from. The format is shared with the firebird generator: quill reads the
// same files and ignores the database-only settings it has no use for.
package schema
