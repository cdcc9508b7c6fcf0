package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table is a titled grid of rows with an optional footer.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
	Footer []any

	// Empty is shown in place of rows when there are none.
	Empty string
}

// NewTable starts a table with the given columns.
func NewTable(title string, header ...string) *Table {
	return &Table{Title: title, Header: header}
}

// Append adds a row.
func (t *Table) Append(cells ...any) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// Render draws the table with rounded borders.
func (t *Table) Render() string {
	w := t.writer(true)
	w.SetStyle(table.StyleRounded)
	return w.Render()
}

// Markdown renders the table as GitHub-flavored markdown.
func (t *Table) Markdown() string {
	rendered := t.writer(false).RenderMarkdown()
	if t.Title != "" {
		rendered = "## " + t.Title + "\n\n" + rendered
	}
	return rendered
}

func (t *Table) writer(titled bool) table.Writer {
	w := table.NewWriter()
	if titled && t.Title != "" {
		w.SetTitle(t.Title)
	}
	if len(t.Header) > 0 {
		w.AppendHeader(toRow(t.Header))
	}
	if len(t.Rows) == 0 && t.Empty != "" {
		w.AppendRow(table.Row{t.Empty})
	}
	for _, row := range t.Rows {
		w.AppendRow(table.Row(row))
	}
	if len(t.Footer) > 0 {
		w.AppendFooter(table.Row(t.Footer))
	}
	return w
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// Count formats n with a singular or plural noun.
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
