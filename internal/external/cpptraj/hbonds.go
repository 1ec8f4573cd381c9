package cpptraj

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// hbondColumn is the solute-solvent count column of the hbond data file.
const hbondColumn = 2

// ParseHBondCount returns the hydrogen bond count of the last data row of a
// hbond output. Comment and blank lines are skipped; a file without data rows
// counts as zero.
func ParseHBondCount(r io.Reader, source string) (int, error) {
	count := 0
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) <= hbondColumn {
			return 0, fmt.Errorf("%s:%d: expected at least %d columns, got %d", source, lineNo, hbondColumn+1, len(fields))
		}
		n, err := strconv.Atoi(fields[hbondColumn])
		if err != nil {
			return 0, fmt.Errorf("%s:%d: invalid hbond count %q", source, lineNo, fields[hbondColumn])
		}
		count = n
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return count, nil
}

// ReadHBondCount reads the hydrogen bond count of one event output.
func ReadHBondCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open hbond output: %w", err)
	}
	defer f.Close()
	return ParseHBondCount(f, path)
}
