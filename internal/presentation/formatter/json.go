package formatter

import (
	"io"

	"github.com/bytedance/sonic"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonTable struct {
	Title   string      `json:"title,omitempty"`
	Headers []string    `json:"columns,omitempty"`
	Rows    [][]string  `json:"rows,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Notes   []string    `json:"notes,omitempty"`
}

// Format writes a single table as an object and several as an array.
func (f *JSONFormatter) Format(w io.Writer, tables ...Table) error {
	out := make([]jsonTable, len(tables))
	for i, t := range tables {
		jt := jsonTable{Title: t.Title, Notes: t.Notes}
		if t.Data != nil {
			jt.Data = t.Data
		} else {
			jt.Headers = t.Headers
			jt.Rows = t.Rows
		}
		out[i] = jt
	}

	var v interface{} = out
	if len(out) == 1 {
		v = out[0]
	}
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
