package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aravindramcb/water-models/internal/util"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const minColumnWidth = 6

type TableFormatter struct {
	// maxWidth caps the rendered width; 0 means unlimited.
	maxWidth int
}

// NewTableFormatter sizes tables to the terminal when stdout is one.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{maxWidth: terminalWidth()}
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < 40 {
		return 0
	}
	util.LogDebugf("Terminal width %d", width)
	return width
}

func (f *TableFormatter) Format(w io.Writer, tables ...Table) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := f.format(w, t); err != nil {
			return err
		}
	}
	return nil
}

func (f *TableFormatter) format(w io.Writer, t Table) error {
	if t.Title != "" {
		fmt.Fprintln(w, t.Title)
	}

	widths := f.calculateColumnWidths(t)

	f.printBorder(w, widths, "top")
	f.printRow(w, t, t.Headers, widths, true)
	f.printBorder(w, widths, "middle")
	if len(t.Rows) == 0 {
		f.printRow(w, t, []string{"no data"}, widths, true)
	}
	for _, row := range t.Rows {
		f.printRow(w, t, row, widths, false)
	}
	f.printBorder(w, widths, "bottom")

	for _, n := range t.Notes {
		fmt.Fprintln(w, n)
	}
	return nil
}

// calculateColumnWidths fits every cell, then shrinks the widest columns until
// the table fits maxWidth.
func (f *TableFormatter) calculateColumnWidths(t Table) []int {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		cols = 1
	}

	widths := make([]int, cols)
	measure := func(cells []string) {
		for i, c := range cells {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}

	if f.maxWidth <= 0 {
		return widths
	}
	for total(widths) > f.maxWidth {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

// total is the rendered width: cells, one space of padding on each side and
// one border per column plus the closing one.
func total(widths []int) int {
	n := 1
	for _, w := range widths {
		n += w + 3
	}
	return n
}

func (f *TableFormatter) printBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(w, b.String())
}

// printRow pads each cell to its column; header cells are always left aligned.
func (f *TableFormatter) printRow(w io.Writer, t Table, values []string, widths []int, header bool) {
	var b strings.Builder
	b.WriteString("│")
	for i, width := range widths {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		if runewidth.StringWidth(value) > width {
			value = runewidth.Truncate(value, width, "…")
		}
		b.WriteString(" ")
		b.WriteString(pad(value, width, header || t.align(i) == AlignLeft))
		b.WriteString(" │")
	}
	fmt.Fprintln(w, b.String())
}

func pad(s string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}
