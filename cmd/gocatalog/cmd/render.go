package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/gocatalog/internal/types"
)

// maxCellWidth truncates long values in result grids.
const maxCellWidth = 48

var (
	headerStyle  = color.New(color.FgCyan, color.OpBold)
	sectionStyle = color.New(color.FgYellow)
	nullStyle    = color.New(color.FgGray)
)

// printHeader prints a formatted header
func printHeader(w io.Writer, format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(w, strings.Repeat("=", width))
	fmt.Fprintf(w, "  %s\n", headerStyle.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(w io.Writer, title string) {
	fmt.Fprintln(w, sectionStyle.Sprintf("[%s]", title))
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// pad right-fills s to width display cells. Styling is applied after
// padding so escape sequences do not count toward the width.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// cell renders one grid value.
func cell(v any) string {
	s := types.Stringify(v)
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, maxCellWidth, "…")
}

// printGrid prints t as an aligned grid followed by a row count.
func printGrid(w io.Writer, t *types.Table) {
	if t == nil || t.Width() == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	cells := make([][]string, t.Len())
	widths := make([]int, t.Width())
	for i, name := range t.Columns {
		widths[i] = runewidth.StringWidth(name)
	}
	for r, row := range t.Rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			cells[r][i] = cell(v)
			if n := runewidth.StringWidth(cells[r][i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	header := make([]string, t.Width())
	rule := make([]string, t.Width())
	for i, name := range t.Columns {
		header[i] = headerStyle.Sprint(pad(name, widths[i]))
		rule[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(header, " | "), " "))
	fmt.Fprintln(w, strings.Join(rule, "-+-"))

	for r, row := range t.Rows {
		line := make([]string, len(row))
		for i, v := range row {
			text := pad(cells[r][i], widths[i])
			if v == nil {
				text = nullStyle.Sprint(text)
			}
			line[i] = text
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, " | "), " "))
	}

	noun := "rows"
	if t.Len() == 1 {
		noun = "row"
	}
	fmt.Fprintf(w, "(%d %s)\n", t.Len(), noun)
}
