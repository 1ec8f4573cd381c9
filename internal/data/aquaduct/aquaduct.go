// Package aquaduct reads AQUA-DUCT analysis summaries.
package aquaduct

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	// ResultsFile is the summary written by the AQUA-DUCT analysis stage.
	ResultsFile  = "5_analysis_results.txt"
	tracedMarker = "Names of traced molecules: WAT"
	// the count sits two lines below the marker
	tracedOffset = 2
)

// TracedWaters returns the number of traced water molecules in an AQUA-DUCT
// results summary.
func TracedWaters(r io.Reader, source string) (int, error) {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	n, marker := 0, -1
	for lines.Scan() {
		n++
		line := lines.Text()
		if marker < 0 {
			if strings.TrimRight(line, "\r") == tracedMarker {
				marker = n
			}
			continue
		}
		if n < marker+tracedOffset {
			continue
		}

		_, value, ok := strings.Cut(line, ":")
		if !ok {
			return 0, fmt.Errorf("%s:%d: traced molecule count %q has no colon", source, n, line)
		}
		if i := strings.Index(value, ":"); i >= 0 {
			value = value[:i]
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("%s:%d: invalid traced molecule count %q", source, n, strings.TrimSpace(value))
		}
		return count, nil
	}
	if err := lines.Err(); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if marker < 0 {
		return 0, fmt.Errorf("%s: %q not found", source, tracedMarker)
	}
	return 0, fmt.Errorf("%s: file ends before the traced molecule count", source)
}

// ReadTracedWaters reads the summary at path.
func ReadTracedWaters(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open AQUA-DUCT results: %w", err)
	}
	defer f.Close()

	return TracedWaters(f, path)
}
