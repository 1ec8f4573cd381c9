package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aravindramcb/water-models/internal/util"
)

// ParseError reports a line of a report that does not match its format.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// Row is one data line of a report with its coerced tokens.
type Row struct {
	Line   int     `json:"line"`
	Values []Value `json:"values"`
}

// Report is the parsed content of one report file.
type Report struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	// Found is false when the file did not exist.
	Found   bool        `json:"found"`
	Rows    []Row       `json:"rows"`
	Trailer *Unassigned `json:"trailer,omitempty"`
}

// Parse reads a report from r. source names the input in errors.
func (f Format) Parse(r io.Reader, source string) (*Report, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	report := &Report{Path: source, Format: f.Name, Found: true, Rows: []Row{}}

	if f.Trailer {
		if len(lines) < f.HeaderLines+f.FooterLines || len(lines) == 0 {
			return nil, &ParseError{Path: source, Line: len(lines), Msg: "report ends before the unassigned trailer"}
		}
		u, err := ParseTrailer(lines[len(lines)-1])
		if err != nil {
			return nil, &ParseError{Path: source, Line: len(lines), Msg: err.Error()}
		}
		report.Trailer = &u
	}

	end := len(lines) - f.FooterLines
	for i := f.HeaderLines; i < end; i++ {
		line := lines[i]
		if f.skip(line) {
			continue
		}

		tokens := f.split(line)
		if len(f.Columns) > 0 && len(tokens) != len(f.Columns) {
			return nil, &ParseError{
				Path: source,
				Line: i + 1,
				Msg:  fmt.Sprintf("got %d columns, want %d", len(tokens), len(f.Columns)),
			}
		}

		values := make([]Value, len(tokens))
		for j, tok := range tokens {
			v, err := ParseValue(tok)
			if err != nil {
				return nil, &ParseError{Path: source, Line: i + 1, Msg: fmt.Sprintf("column %d: %v", j+1, err)}
			}
			values[j] = v
		}
		report.Rows = append(report.Rows, Row{Line: i + 1, Values: values})
	}

	return report, nil
}

// ReadFile parses the report at path. A missing file is logged and yields an
// empty report with Found unset.
func (f Format) ReadFile(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			util.LogWarn("Report not found", util.F("path", path), util.F("format", f.Name))
			return &Report{Path: path, Format: f.Name, Rows: []Row{}}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return f.Parse(file, path)
}

// EventStats decodes the rows of an events report.
func (r *Report) EventStats() []EventStats {
	stats := make([]EventStats, 0, len(r.Rows))
	for _, row := range r.Rows {
		if len(row.Values) >= len(eventColumns) {
			stats = append(stats, newEventStats(row.Values))
		}
	}
	return stats
}

// TunnelStats decodes the rows of a tunnel statistics report.
func (r *Report) TunnelStats() []TunnelStats {
	stats := make([]TunnelStats, 0, len(r.Rows))
	for _, row := range r.Rows {
		if len(row.Values) >= 14 {
			stats = append(stats, newTunnelStats(row.Values))
		}
	}
	return stats
}

// SuperClusters returns the first column of every row in file order.
func (r *Report) SuperClusters() []int {
	ids := make([]int, 0, len(r.Rows))
	for _, row := range r.Rows {
		if len(row.Values) > 0 {
			ids = append(ids, row.Values[0].Int())
		}
	}
	return ids
}
