// Package quill keeps GraphQL schema files in step with Firebird resource
// schemas without ever overwriting hand edits.
package quill

// Version is the quill release, reported by `quill --version`.
const Version = "0.1.0"
