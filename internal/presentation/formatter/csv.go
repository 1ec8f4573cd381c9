package formatter

import (
	"encoding/csv"
	"io"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes each table as a header and its rows. With several tables each
// one is introduced by a "# title" line and followed by a blank line.
func (f *CSVFormatter) Format(w io.Writer, tables ...Table) error {
	cw := csv.NewWriter(w)
	multi := len(tables) > 1

	for i, t := range tables {
		if multi && t.Title != "" {
			if err := cw.Write([]string{"# " + t.Title}); err != nil {
				return err
			}
		}
		if err := cw.Write(t.Headers); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		for _, n := range t.Notes {
			if err := cw.Write([]string{"# " + n}); err != nil {
				return err
			}
		}
		if multi && i < len(tables)-1 {
			cw.Flush()
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
