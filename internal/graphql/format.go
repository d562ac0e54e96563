package graphql

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// Formatter reformats SDL text before it is written.
type Formatter interface {
	Format(name string, src []byte) ([]byte, error)
}

// Builtin formats by a Parse/Print round trip. It keeps # comments.
type Builtin struct{}

func (Builtin) Format(name string, src []byte) ([]byte, error) {
	doc, err := Parse(name, src)
	if err != nil {
		return nil, err
	}
	return []byte(Print(doc)), nil
}

// GQLParser formats with gqlparser's own printer (tab indentation). Its
// printer puts every comment on a line of its own, so end-of-line comments
// move to the line below. A document whose comments gqlparser cannot place
// at all is refused with ErrCommentLost rather than written without them.
type GQLParser struct{}

func (GQLParser) Format(name string, src []byte) ([]byte, error) {
	if strings.TrimSpace(string(src)) == "" {
		return []byte{}, nil
	}
	sd, err := parser.ParseSchema(&ast.Source{Name: name, Input: string(src)})
	if err != nil {
		return nil, newParseError(name, err)
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithComments()).FormatSchemaDocument(sd)
	if lost := missingComments(commentTexts(name, src), commentTexts(name, buf.Bytes())); len(lost) > 0 {
		return nil, fmt.Errorf("%s: %w: %q (use the builtin formatter)", name, ErrCommentLost, lost[0])
	}
	return buf.Bytes(), nil
}

// missingComments returns the texts of want that got has fewer of.
func missingComments(want, got []string) []string {
	count := make(map[string]int, len(got))
	for _, g := range got {
		count[g]++
	}
	var lost []string
	for _, w := range want {
		if count[w] == 0 {
			lost = append(lost, w)
			continue
		}
		count[w]--
	}
	return lost
}

// FormatterByName resolves the formatter configured by name.
func FormatterByName(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "builtin":
		return Builtin{}, nil
	case "gqlparser":
		return GQLParser{}, nil
	default:
		return nil, fmt.Errorf("unknown formatter '%s' (use 'builtin' or 'gqlparser')", name)
	}
}
