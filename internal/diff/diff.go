// Package diff renders unified diffs of proposed file changes, used by
// `quill sync --dry-run --diff`.
package diff

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// maxLines bounds the input size; the edit script trace grows with N*D.
const maxLines = 10000

// Op is the kind of a diff line.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one line of an edit script. OldIndex and NewIndex count the lines
// of each side that precede it.
type Line struct {
	Op       Op
	Text     string
	OldIndex int
	NewIndex int
}

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// Options configures Unified.
type Options struct {
	Context int  // unchanged lines around changes, default 3
	Color   bool // style with lipgloss
	Width   int  // truncate colored lines; 0 detects the terminal width
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	insertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	deleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
	contextStyle = lipgloss.NewStyle()
)

// Unified returns a unified diff of old and newer for the named file, or ""
// when they are equal. A missing old file is diffed as empty.
func Unified(name string, old, newer []byte, opts Options) string {
	if opts.Context <= 0 {
		opts.Context = 3
	}
	a, b := splitLines(string(old)), splitLines(string(newer))
	if len(a) > maxLines || len(b) > maxLines {
		return fmt.Sprintf("%s: too large to diff (%d and %d lines)\n", name, len(a), len(b))
	}

	hunks := Hunks(Lines(a, b), opts.Context)
	if len(hunks) == 0 {
		return ""
	}

	width := opts.Width
	if opts.Color && width == 0 {
		width = terminalWidth()
	}
	style := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var buf strings.Builder
	buf.WriteString(style(headerStyle, "--- a/"+name) + "\n")
	buf.WriteString(style(headerStyle, "+++ b/"+name) + "\n")
	for _, h := range hunks {
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		buf.WriteString(style(hunkStyle, header) + "\n")
		for _, l := range h.Lines {
			text := l.Text
			if opts.Color {
				text = truncate(text, width-2)
			}
			switch l.Op {
			case Insert:
				buf.WriteString(style(insertStyle, "+"+text))
			case Delete:
				buf.WriteString(style(deleteStyle, "-"+text))
			default:
				buf.WriteString(style(contextStyle, " "+text))
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// Lines computes the shortest edit script from a to b with Myers'
// O(ND) algorithm.
func Lines(a, b []string) []Line {
	n, m := len(a), len(b)
	limit := n + m
	if limit == 0 {
		return nil
	}
	off := limit + 1
	v := make([]int, 2*limit+3)
	var trace [][]int

	var d int
search:
	for d = 0; d <= limit; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
				x = v[off+k+1]
			} else {
				x = v[off+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[off+k] = x
			if x >= n && y >= m {
				break search
			}
		}
	}

	script := make([]Line, 0, n+m)
	x, y := n, m
	for ; d >= 0; d-- {
		prev := trace[d]
		k := x - y
		var pk int
		if k == -d || (k != d && prev[off+k-1] < prev[off+k+1]) {
			pk = k + 1
		} else {
			pk = k - 1
		}
		px := prev[off+pk]
		py := px - pk

		for x > px && y > py {
			x--
			y--
			script = append(script, Line{Op: Equal, Text: a[x], OldIndex: x, NewIndex: y})
		}
		if d == 0 {
			break
		}
		if x == px {
			y--
			script = append(script, Line{Op: Insert, Text: b[y], OldIndex: x, NewIndex: y})
		} else {
			x--
			script = append(script, Line{Op: Delete, Text: a[x], OldIndex: x, NewIndex: y})
		}
	}

	for i, j := 0, len(script)-1; i < j; i, j = i+1, j-1 {
		script[i], script[j] = script[j], script[i]
	}
	return script
}

// Hunks groups an edit script into hunks with context lines on each side.
// Changes separated by at most 2*context unchanged lines share a hunk.
func Hunks(script []Line, context int) []Hunk {
	var changes []int
	for i, l := range script {
		if l.Op != Equal {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	var hunks []Hunk
	start := changes[0]
	end := changes[0]
	flush := func() {
		lo := start - context
		if lo < 0 {
			lo = 0
		}
		hi := end + context + 1
		if hi > len(script) {
			hi = len(script)
		}
		hunks = append(hunks, newHunk(script[lo:hi]))
	}
	for _, c := range changes[1:] {
		if c-end-1 > 2*context {
			flush()
			start = c
		}
		end = c
	}
	flush()
	return hunks
}

func newHunk(lines []Line) Hunk {
	h := Hunk{Lines: lines}
	for _, l := range lines {
		if l.Op != Insert {
			h.OldCount++
		}
		if l.Op != Delete {
			h.NewCount++
		}
	}
	h.OldStart = lines[0].OldIndex
	if h.OldCount > 0 {
		h.OldStart++
	}
	h.NewStart = lines[0].NewIndex
	if h.NewCount > 0 {
		h.NewStart++
	}
	return h
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
