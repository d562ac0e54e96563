package graphql

import (
	"errors"
	"fmt"
)

// ErrParse matches every *ParseError with errors.Is.
var ErrParse = errors.New("invalid GraphQL document")

// ParseError reports existing file content that is not valid SDL, or that
// declares a definition or field twice.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) true for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ErrCommentLost is returned by GQLParser.Format when its printer would drop
// a comment of the document.
var ErrCommentLost = errors.New("formatter would drop a comment")
