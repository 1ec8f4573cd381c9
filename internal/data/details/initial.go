package details

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	initialIDPrefix  = "Supercluster ID"
	initialSkipLines = 6
	minSeparatorLen  = 10
)

// CaverMapping links each simulation to the original CAVER cluster that forms
// the requested super clusters there.
type CaverMapping struct {
	// Clusters holds the lowest (highest priority) CAVER cluster id per simulation.
	Clusters map[string]int `json:"clusters"`
	// Missing lists requested simulations without any CAVER cluster.
	Missing []string `json:"missing"`
}

// Simulations lists the mapped simulations, sorted.
func (m CaverMapping) Simulations() []string {
	sims := make([]string, 0, len(m.Clusters))
	for sim := range m.Clusters {
		sims = append(sims, sim)
	}
	sort.Strings(sims)
	return sims
}

func isSeparator(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= minSeparatorLen && strings.Trim(t, "-") == ""
}

// ParseInitialDetails reads initial_super_cluster_details.txt and collects the
// CAVER cluster ids of superClusters for every simulation. sims are the
// simulations expected to be present; simulations found only in the file are
// included as well.
func ParseInitialDetails(r io.Reader, superClusters []int, sims []string) (CaverMapping, error) {
	wanted := make(map[int]bool, len(superClusters))
	for _, id := range superClusters {
		wanted[id] = true
	}

	ids := make(map[string][]int, len(sims))
	for _, sim := range sims {
		ids[sim] = nil
	}

	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var section []string
	flush := func() {
		collectSection(section, wanted, ids)
		section = section[:0]
	}
	for lines.Scan() {
		line := lines.Text()
		if isSeparator(line) {
			flush()
			continue
		}
		section = append(section, line)
	}
	if err := lines.Err(); err != nil {
		return CaverMapping{}, fmt.Errorf("failed to read initial details: %w", err)
	}
	flush()

	m := CaverMapping{Clusters: make(map[string]int), Missing: []string{}}
	for sim, list := range ids {
		if len(list) == 0 {
			m.Missing = append(m.Missing, sim)
			continue
		}
		lowest := list[0]
		for _, v := range list[1:] {
			if v < lowest {
				lowest = v
			}
		}
		m.Clusters[sim] = lowest
	}
	sort.Strings(m.Missing)
	return m, nil
}

func collectSection(section []string, wanted map[int]bool, ids map[string][]int) {
	// leading blank lines are trimmed as in a stripped section
	for len(section) > 0 && strings.TrimSpace(section[0]) == "" {
		section = section[1:]
	}
	if len(section) == 0 || !strings.HasPrefix(strings.TrimSpace(section[0]), initialIDPrefix) {
		return
	}
	header := strings.Fields(section[0])
	id, err := strconv.Atoi(header[len(header)-1])
	if err != nil || !wanted[id] {
		return
	}
	if len(section) <= initialSkipLines {
		return
	}

	for _, line := range section[initialSkipLines:] {
		if !strings.HasPrefix(line, "from") {
			continue
		}
		head, body, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headFields := strings.Fields(head)
		if len(headFields) < 2 {
			continue
		}
		values, ok := parseIntList(body)
		if !ok {
			continue
		}
		sim := headFields[1]
		ids[sim] = append(ids[sim], values...)
	}
}

func parseIntList(s string) ([]int, bool) {
	var values []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// ReadInitialDetails parses the initial details file at path.
func ReadInitialDetails(path string, superClusters []int, sims []string) (CaverMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return CaverMapping{}, fmt.Errorf("failed to open initial details: %w", err)
	}
	defer f.Close()

	return ParseInitialDetails(f, superClusters, sims)
}
