package cli

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxCell truncates long cells so one description cannot blow up a row.
const maxCell = 48

// writeTable prints rows aligned on display width, so accented names line up.
func writeTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, header)
	for _, r := range rows {
		row := make([]string, len(header))
		for i := range header {
			if i < len(r) {
				row[i] = runewidth.Truncate(r[i], maxCell, "…")
			}
		}
		cells = append(cells, row)
	}
	for _, r := range cells {
		for i, c := range r {
			if n := runewidth.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	for _, r := range cells {
		for i, c := range r {
			sb.WriteString(c)
			if i < len(r)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(c)+2))
			}
		}
		sb.WriteString("\n")
	}
	_, _ = io.WriteString(w, sb.String())
}
