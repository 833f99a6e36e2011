// Package ui renders the plain-text tables, key-value summaries, and lists
// the CLI uses to present rule listings, scan results, and run history.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// plain returns c with color output disabled when noColor is set, so every
// renderer below can share one line instead of repeating the check.
func plain(c *color.Color, noColor bool) *color.Color {
	if noColor {
		c.DisableColor()
	}
	return c
}

// Table renders match results, rule listings, or run history as aligned
// columns with a header and a separator rule.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	noColor := false
	if opts != nil {
		noColor = opts.NoColor
	}

	return &Table{
		writer:  w,
		headers: headers,
		rows:    make([][]string, 0),
		noColor: noColor,
	}
}

// AddRow appends one row of cell values, in header order.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the header, a separator rule, and every added row to the
// table's writer, each column padded to its widest cell.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := plain(color.New(color.Bold, color.FgCyan), t.noColor)
	for i, header := range t.headers {
		bold.Fprint(t.writer, padRight(header, widths[i]))
		if i < len(t.headers)-1 {
			fmt.Fprint(t.writer, "  ")
		}
	}
	fmt.Fprintln(t.writer)

	gray := plain(color.New(color.FgHiBlack), t.noColor)
	for i, width := range widths {
		gray.Fprint(t.writer, strings.Repeat("─", width))
		if i < len(widths)-1 {
			gray.Fprint(t.writer, "  ")
		}
	}
	fmt.Fprintln(t.writer)

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprint(t.writer, padRight(cell, widths[i]))
				if i < len(row)-1 {
					fmt.Fprint(t.writer, "  ")
				}
			}
		}
		fmt.Fprintln(t.writer)
	}
}

// padRight right-pads s with spaces out to width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// KeyValueTable renders a two-column key/value summary, such as a single
// run's recorded fields or a session's current status.
type KeyValueTable struct {
	writer  io.Writer
	rows    []kvRow
	noColor bool
}

type kvRow struct {
	key   string
	value string
}

// NewKeyValueTable creates an empty key/value summary.
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{
		writer:  w,
		rows:    make([]kvRow, 0),
		noColor: noColor,
	}
}

// AddRow appends one key/value pair.
func (t *KeyValueTable) AddRow(key, value string) {
	t.rows = append(t.rows, kvRow{key: key, value: value})
}

// Render writes every row, each key left-aligned and padded to the widest
// key.
func (t *KeyValueTable) Render() {
	if len(t.rows) == 0 {
		return
	}

	maxKeyWidth := 0
	for _, row := range t.rows {
		if len(row.key) > maxKeyWidth {
			maxKeyWidth = len(row.key)
		}
	}

	cyan := plain(color.New(color.FgCyan), t.noColor)
	for _, row := range t.rows {
		cyan.Fprint(t.writer, padRight(row.key+":", maxKeyWidth+1))
		fmt.Fprintf(t.writer, " %s\n", row.value)
	}
}

// Section is a titled block of indented lines, used to group related
// diagnostics (e.g. every broken statement found in one rule file).
type Section struct {
	writer  io.Writer
	title   string
	content []string
	noColor bool
}

// NewSection creates an empty titled section.
func NewSection(w io.Writer, title string, noColor bool) *Section {
	return &Section{
		writer:  w,
		title:   title,
		content: make([]string, 0),
		noColor: noColor,
	}
}

// AddLine appends one line of section content.
func (s *Section) AddLine(line string) {
	s.content = append(s.content, line)
}

// Render writes the title followed by its indented content and a trailing
// blank line.
func (s *Section) Render() {
	bold := plain(color.New(color.Bold, color.FgCyan), s.noColor)
	bold.Fprintln(s.writer, s.title)

	for _, line := range s.content {
		fmt.Fprintf(s.writer, "  %s\n", line)
	}
	fmt.Fprintln(s.writer)
}

// List is a bulleted or numbered list, used for import-candidate paths and
// fuzzy-match suggestions.
type List struct {
	writer   io.Writer
	items    []string
	numbered bool
	noColor  bool
}

// ListOptions configures list rendering.
type ListOptions struct {
	Numbered bool
	NoColor  bool
}

// NewList creates an empty list.
func NewList(w io.Writer, opts ListOptions) *List {
	return &List{
		writer:   w,
		items:    make([]string, 0),
		numbered: opts.Numbered,
		noColor:  opts.NoColor,
	}
}

// AddItem appends one list item.
func (l *List) AddItem(item string) {
	l.items = append(l.items, item)
}

// Render writes every item, bulleted or numbered per ListOptions.Numbered.
func (l *List) Render() {
	if len(l.items) == 0 {
		return
	}

	cyan := plain(color.New(color.FgCyan), l.noColor)
	for i, item := range l.items {
		if l.numbered {
			cyan.Fprintf(l.writer, "%d. ", i+1)
		} else {
			cyan.Fprint(l.writer, "• ")
		}
		fmt.Fprintln(l.writer, item)
	}
}

// Divider writes a horizontal rule width characters wide (80 if width is 0).
func Divider(w io.Writer, width int, noColor bool) {
	if width == 0 {
		width = 80
	}
	plain(color.New(color.FgHiBlack), noColor).Fprintln(w, strings.Repeat("─", width))
}

// Header writes a bold title followed by a divider sized to it, used above
// a rule listing or a scan report.
func Header(w io.Writer, title string, noColor bool) {
	plain(color.New(color.Bold, color.FgCyan), noColor).Fprintln(w, title)
	Divider(w, len(title), noColor)
}
