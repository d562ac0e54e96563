package graphql

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/lexer"
)

// commenter turns the parser's comment groups into Document comments while
// the AST is converted in source order.
//
// gqlparser hands every comment group to the token that follows it, so a
// comment on the same line as the previous element (`id: ID! # key`) arrives
// in the next element's group. take moves such a comment back to slot, the
// inline comment of the element converted last. Groups the parser discards
// (before ")" or inside types and directives) are placed afterwards by
// placeOrphans, from a lexer pass over the source.
type commenter struct {
	src     *ast.Source
	lines   []string
	claimed map[int]bool // comment start offsets already placed
	slot    *string
	owners  []owner
	lists   []*argumentList
}

// owner is an element that can receive a comment the parser dropped.
type owner struct {
	start   int
	leading *[]string
	inline  *string
	closing *[]string // comments before the ")" of an argument list
}

func newCommenter(src *ast.Source) *commenter {
	return &commenter{
		src:     src,
		lines:   strings.Split(src.Input, "\n"),
		claimed: make(map[int]bool),
	}
}

// take returns the own-line comments of g. A first comment that shares its
// line with earlier code becomes the inline comment of the current slot.
func (c *commenter) take(g *ast.CommentGroup) []string {
	if g == nil {
		return nil
	}
	var out []string
	for i, cm := range g.List {
		if cm == nil || cm.Position == nil || c.claimed[cm.Position.Start] {
			continue
		}
		c.claimed[cm.Position.Start] = true
		text := commentText(cm.Value)
		if i == 0 && c.slot != nil && c.sameLine(cm.Position) {
			appendInline(c.slot, text)
			continue
		}
		out = append(out, text)
	}
	return out
}

// documented splits the groups around a description. Without a description
// the parser reports every leading comment as the after-description group.
func (c *commenter) documented(before, after *ast.CommentGroup, description string) (leading, afterDesc []string) {
	leading = c.take(before)
	if description == "" {
		return append(leading, c.take(after)...), nil
	}
	c.slot = nil
	return leading, c.take(after)
}

func (c *commenter) own(pos *ast.Position, leading *[]string, inline *string, closing *[]string) {
	if pos == nil {
		return
	}
	c.owners = append(c.owners, owner{start: pos.Start, leading: leading, inline: inline, closing: closing})
}

// sameLine reports whether code precedes pos on its line.
func (c *commenter) sameLine(pos *ast.Position) bool {
	if pos.Line < 1 || pos.Line > len(c.lines) {
		return false
	}
	runes := []rune(c.lines[pos.Line-1])
	col := pos.Column - 1
	if col > len(runes) {
		col = len(runes)
	}
	if col < 0 {
		col = 0
	}
	return strings.TrimSpace(strings.TrimPrefix(string(runes[:col]), "\ufeff")) != ""
}

// placeOrphans attaches comments no group carried to the element they sit
// in. The source already parsed, so lexing cannot fail.
func (c *commenter) placeOrphans() {
	if len(c.owners) == 0 {
		return
	}
	lex := lexer.New(c.src)
	var waiting []lexer.Token
	for {
		tok, err := lex.ReadToken()
		if err != nil {
			return
		}
		if tok.Kind == lexer.Comment {
			if !c.claimed[tok.Pos.Start] {
				waiting = append(waiting, tok)
			}
			continue
		}
		for _, w := range waiting {
			c.placeOrphan(w, tok.Kind)
		}
		waiting = nil
		if tok.Kind == lexer.EOF {
			return
		}
	}
}

func (c *commenter) placeOrphan(tok lexer.Token, next lexer.Type) {
	i := sort.Search(len(c.owners), func(i int) bool { return c.owners[i].start > tok.Pos.Start }) - 1
	if i < 0 {
		i = 0
	}
	o := c.owners[i]
	text := commentText(tok.Value)
	c.claimed[tok.Pos.Start] = true

	switch {
	case c.sameLine(&tok.Pos):
		appendInline(o.inline, text)
	case next == lexer.ParenR && o.closing != nil:
		*o.closing = append(*o.closing, text)
	default:
		*o.leading = append(*o.leading, text)
	}
}

// finish renders the argument lists once every comment is placed.
func (c *commenter) finish() {
	for _, l := range c.lists {
		*l.target = l.render()
	}
}

func commentText(value string) string {
	return strings.TrimRight(strings.TrimPrefix(value, "#"), " \t")
}

func appendInline(dst *string, text string) {
	if *dst == "" {
		*dst = text
		return
	}
	*dst += " #" + text
}

// commentTexts lists the comment texts of src in order.
func commentTexts(name string, src []byte) []string {
	lex := lexer.New(&ast.Source{Name: name, Input: string(src)})
	var out []string
	for {
		tok, err := lex.ReadToken()
		if err != nil || tok.Kind == lexer.EOF {
			return out
		}
		if tok.Kind == lexer.Comment {
			out = append(out, strings.TrimSpace(commentText(tok.Value)))
		}
	}
}
