package ioformat

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/xyproto/env/v2"

	"github.com/mauricelam/pyolin/record"
)

// markdownPrinter renders a header row, a separator row of dashes, then
// data rows. The whole sequence is buffered so nothing is emitted when
// a later record fails. Rows wider than the header are still emitted
// unaligned rather than silently truncated.
type markdownPrinter struct{}

const defaultTableWidth = 100

// tableWidth returns the rendering budget in characters: the terminal
// width when stdout is a tty, else PYOLIN_TABLE_WIDTH.
func tableWidth() int {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		if cols := env.Int("COLUMNS", 0); cols > 0 {
			return cols
		}
	}

	return env.Int("PYOLIN_TABLE_WIDTH", defaultTableWidth)
}

func (markdownPrinter) Print(w io.Writer, result any, cfg PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	table, err := toTable(result, cfg)
	if err != nil {
		return err
	}

	var rows [][]string

	for {
		row, ok, err := table.nextRow()
		if err != nil {
			return err
		}

		if !ok {
			break
		}

		rows = append(rows, row)
	}

	header := table.header
	if header == nil {
		if len(rows) == 0 {
			return nil
		}

		header = record.Synthesize(len(rows[0])).Header
	}

	widths := allocateWidths(header, rows)

	var sb strings.Builder

	writeRow(&sb, header, widths)

	sb.WriteString("|")

	for _, width := range widths {
		sb.WriteString(" " + strings.Repeat("-", width) + " |")
	}

	sb.WriteString("\n")

	for _, row := range rows {
		writeRow(&sb, row, widths)
	}

	_, err = io.WriteString(w, sb.String())

	return err
}

// writeRow renders one markdown table row, padding cells to the column
// widths. Extra cells beyond the header are appended unaligned.
func writeRow(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteString("|")

	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		sb.WriteString(" " + pad(cell, width) + " |")
	}

	for _, cell := range cells[min(len(cells), len(widths)):] {
		sb.WriteString(" " + cell + " |")
	}

	sb.WriteString("\n")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return s + strings.Repeat(" ", width-len(s))
}

// allocateWidths sizes each column to its longest cell, scaling down
// proportionally when the combined width exceeds the table budget.
func allocateWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))

	for i, label := range header {
		widths[i] = len(label)
	}

	sample := rows
	if len(sample) > 10 {
		sample = sample[:10]
	}

	for _, row := range sample {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Subtract characters used by markdown delimiters.
	available := tableWidth() - 2 - 3*(len(header)-1) - 2

	total := 0
	for _, w := range widths {
		total += w
	}

	if total > available && available > 0 {
		for i := range widths {
			widths[i] = widths[i] * available / total
			if widths[i] < 1 {
				widths[i] = 1
			}
		}
	}

	return widths
}
