package formatter

import (
	"fmt"
	"io"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table is one block of output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Align holds one entry per column. Columns without one are left
	// aligned when first and right aligned otherwise.
	Align []Align
	// Notes are printed below the table.
	Notes []string
	// Data replaces Headers and Rows in JSON output when set.
	Data interface{}
}

func (t Table) align(col int) Align {
	if col < len(t.Align) {
		return t.Align[col]
	}
	if col == 0 {
		return AlignLeft
	}
	return AlignRight
}

// Formatter writes tables to w.
type Formatter interface {
	Format(w io.Writer, tables ...Table) error
}

// New returns the formatter for an output format name.
func New(format string) (Formatter, error) {
	switch format {
	case "", "table":
		return NewTableFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}
}
