// Package residues reads the bottleneck residue tables of TransportTools.
package residues

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aravindramcb/water-models/internal/util"
)

const (
	// File is the per comparative folder residue table.
	File        = "2-filtered_tunnels_statistics_bottleneck_residues.txt"
	headerLines = 18
)

// Frequency is how often a residue lines the bottleneck of a super cluster.
type Frequency struct {
	Residue   string  `json:"residue"`
	Frequency float64 `json:"frequency"`
}

// Record is one super cluster row with the residues at or above the cutoff,
// in file order.
type Record struct {
	SuperCluster int         `json:"super_cluster"`
	Frames       int         `json:"frames"`
	Residues     []Frequency `json:"residues"`
}

// Parse reads a residue table. Rows whose frame count is "-" have no
// bottleneck data and are skipped.
func Parse(r io.Reader, source string, cutoff float64) ([]Record, error) {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	records := []Record{}
	n := 0
	for lines.Scan() {
		n++
		if n <= headerLines {
			continue
		}
		fields := strings.Fields(lines.Text())
		if len(fields) == 0 {
			continue
		}
		for i := range fields {
			fields[i] = strings.Trim(fields[i], ",")
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: want super cluster id and frame count", source, n)
		}

		sc, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid super cluster id %q", source, n, fields[0])
		}
		if fields[1] == "-" {
			continue
		}
		frames, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid frame count %q", source, n, fields[1])
		}

		rec := Record{SuperCluster: sc, Frames: frames, Residues: []Frequency{}}
		for _, entry := range fields[2:] {
			res, freq, ok := strings.Cut(entry, ":")
			if !ok {
				return nil, fmt.Errorf("%s:%d: residue entry %q is not res:freq", source, n, entry)
			}
			f, err := strconv.ParseFloat(freq, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid frequency in %q", source, n, entry)
			}
			if f >= cutoff {
				rec.Residues = append(rec.Residues, Frequency{Residue: res, Frequency: f})
			}
		}
		records = append(records, rec)
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return records, nil
}

// ReadFile parses the residue table at path.
func ReadFile(path string, cutoff float64) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open residue table: %w", err)
	}
	defer f.Close()

	return Parse(f, path, cutoff)
}

// Select keeps the records of the given super clusters, in file order.
func Select(records []Record, superClusters []int) []Record {
	wanted := make(map[int]bool, len(superClusters))
	for _, id := range superClusters {
		wanted[id] = true
	}
	out := []Record{}
	for _, rec := range records {
		if wanted[rec.SuperCluster] {
			out = append(out, rec)
		}
	}
	return out
}

// Rank averages the frequency of every residue over the records listing it
// and orders the residues by mean frequency, highest first. Equal means are
// ordered by residue name.
func Rank(records []Record) []Frequency {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		for _, f := range rec.Residues {
			sums[f.Residue] += f.Frequency
			counts[f.Residue]++
		}
	}

	out := make([]Frequency, 0, len(sums))
	for res, sum := range sums {
		out = append(out, Frequency{Residue: res, Frequency: sum / float64(counts[res])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Residue < out[j].Residue
	})
	return out
}

// Top returns the first n entries of a ranking; n <= 0 keeps all of them.
func Top(ranked []Frequency, n int) []Frequency {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// Comparative reads the residue table of every folder under root and returns
// the records of superClusters per folder. Folders without a table are left
// out.
func Comparative(root string, folders []string, superClusters []int, cutoff float64) (map[string][]Record, error) {
	out := make(map[string][]Record, len(folders))
	for _, folder := range folders {
		path := filepath.Join(root, folder, File)
		records, err := ReadFile(path, cutoff)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				util.LogWarn("Residue table not found", util.F("path", path))
				continue
			}
			return nil, err
		}
		out[folder] = Select(records, superClusters)
	}
	return out, nil
}
