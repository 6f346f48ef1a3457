package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// columnGap is the number of spaces between columns
const columnGap = 2

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table renders column-aligned rows. Rows are buffered until Flush so that
// column widths can be capped to the terminal and long cells wrapped.
// Empty tables produce no output.
type Table struct {
	out     io.Writer
	headers []string
	prefix  string
	rows    [][]string
	width   int // 0 means unlimited
}

// NewTable creates a table on stdout with the given column headers.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo creates a table writing to w. When w is a terminal, columns
// are capped to its width.
func NewTableTo(w io.Writer, headers ...string) *Table {
	t := &Table{out: w, headers: headers}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			t.width = width
		}
	}
	return t
}

// WithPrefix sets a string prepended to each line (headers, divider, rows).
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// WithWidth overrides the detected terminal width; 0 disables capping.
func (t *Table) WithWidth(width int) *Table {
	t.width = width
	return t
}

// Row buffers one row
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush writes the headers, a dash divider and every buffered row.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], visualLen(row[i]))
		}
	}
	if t.width > 0 {
		widths = capWidths(widths, t.headers, t.width, len(t.prefix))
	}

	dividers := make([]string, len(t.headers))
	for i, h := range t.headers {
		dividers[i] = strings.Repeat("-", visualLen(h))
	}
	t.writeRow(widths, t.headers)
	t.writeRow(widths, dividers)
	for _, row := range t.rows {
		t.writeRow(widths, row)
	}
	t.rows = nil
}

func (t *Table) writeRow(widths []int, values []string) {
	cells := make([][]string, len(widths))
	height := 1
	for i := range widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		cells[i] = wrapCell(v, widths[i])
		height = max(height, len(cells[i]))
	}
	for line := 0; line < height; line++ {
		var b strings.Builder
		b.WriteString(t.prefix)
		for i, cell := range cells {
			text := ""
			if line < len(cell) {
				text = cell[line]
			}
			b.WriteString(text)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", max(0, widths[i]-visualLen(text))+columnGap))
			}
		}
		fmt.Fprintln(t.out, strings.TrimRight(b.String(), " "))
	}
}

// capWidths shrinks the widest columns, one character at a time, until the
// row fits termWidth. No column goes below its header width.
func capWidths(widths []int, headers []string, termWidth, prefix int) []int {
	out := append([]int(nil), widths...)
	total := prefix + columnGap*(len(out)-1)
	for _, w := range out {
		total += w
	}
	for total > termWidth {
		widest := -1
		for i, w := range out {
			if w > visualLen(headers[i]) && (widest < 0 || w > out[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		out[widest]--
		total--
	}
	return out
}

// visualLen is the printed width of s, ignoring ANSI color codes.
func visualLen(s string) int {
	return utf8.RuneCountInString(ansiRe.ReplaceAllString(s, ""))
}

// wrapCell splits s into lines of at most width characters, breaking at
// spaces and hard-breaking words longer than width. A cell that fits is
// returned unchanged, color codes included.
func wrapCell(s string, width int) []string {
	if width <= 0 || visualLen(s) <= width {
		return []string{s}
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(ansiRe.ReplaceAllString(s, "")) {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}
