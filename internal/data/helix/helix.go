// Package helix reads the helix-helix distances measured across a tunnel
// opening. A table has one row per frame and one column per simulation; the
// first column is the frame index.
package helix

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Suffix follows the tunnel name in a distance table name.
const Suffix = "_openings.csv"

// FileName is the distance table of a tunnel, e.g. "p1_openings.csv".
func FileName(tunnel string) string {
	return tunnel + Suffix
}

// Distances holds the per frame distances of every simulation.
type Distances struct {
	// Simulations are the column names in file order.
	Simulations []string             `json:"simulations"`
	Values      map[string][]float64 `json:"values"`
}

// Parse reads a distance table. Empty and NaN cells are skipped.
func Parse(r io.Reader, source string) (*Distances, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty distance table", source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: want a frame column and at least one simulation", source)
	}

	d := &Distances{
		Simulations: make([]string, 0, len(header)-1),
		Values:      make(map[string][]float64, len(header)-1),
	}
	for _, name := range header[1:] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%s: unnamed simulation column", source)
		}
		if _, dup := d.Values[name]; dup {
			return nil, fmt.Errorf("%s: simulation %s listed twice", source, name)
		}
		d.Simulations = append(d.Simulations, name)
		d.Values[name] = []float64{}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		for i, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid distance %q", source, line, cell)
			}
			sim := d.Simulations[i]
			d.Values[sim] = append(d.Values[sim], v)
		}
	}
	return d, nil
}

// Read parses the distance table at path.
func Read(path string) (*Distances, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open distance table: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}
