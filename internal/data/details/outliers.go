package details

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aravindramcb/water-models/internal/data/parser"
)

const outlierHeaderLines = 4

// Outliers counts, per simulation, the transport events TransportTools could
// not assign to any super cluster.
type Outliers map[string]parser.Unassigned

// ParseOutliers reads outlier_transport_events_details.txt. Event lines look
// like "from 3A_opc_3: 1952, (WAT:8178), 19098->19131;" and are counted as
// entries until the first line mentioning "release".
func ParseOutliers(r io.Reader, source string) (Outliers, error) {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	out := make(Outliers)
	kind := Entry
	n := 0
	for lines.Scan() {
		n++
		if n <= outlierHeaderLines {
			continue
		}
		line := lines.Text()

		if strings.Contains(line, "release") {
			kind = Release
			continue
		}
		if !strings.Contains(line, "from") {
			continue
		}

		fields := strings.Split(strings.TrimSpace(line), " ")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: malformed outlier line %q", source, n, line)
		}
		sim, _, _ := strings.Cut(fields[1], ":")
		count := strings.Count(line, ";")

		u := out[sim]
		u.ID = sim
		if kind == Entry {
			u.Entries += count
		} else {
			u.Releases += count
		}
		u.Total = u.Entries + u.Releases
		out[sim] = u
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return out, nil
}

// ReadOutliers parses the outlier report at path.
func ReadOutliers(path string) (Outliers, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outlier report: %w", err)
	}
	defer f.Close()

	return ParseOutliers(f, path)
}

// For returns the counts of sims in order. Simulations absent from the report
// have no unassigned events.
func (o Outliers) For(sims []string) []parser.Unassigned {
	res := make([]parser.Unassigned, len(sims))
	for i, sim := range sims {
		u, ok := o[sim]
		if !ok {
			u = parser.Unassigned{ID: sim}
		}
		res[i] = u
	}
	return res
}

// Simulations lists the simulations present in the report, sorted.
func (o Outliers) Simulations() []string {
	sims := make([]string, 0, len(o))
	for sim := range o {
		sims = append(sims, sim)
	}
	sort.Strings(sims)
	return sims
}
