// Package fixtures writes small TransportTools runs for tests.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/aravindramcb/water-models/internal/data/parser"
)

const (
	ComparativeDir = "comparative"
	DetailsDir     = "details"
)

// FrameRange is one transport event as written in the details report
type FrameRange struct {
	Start int
	End   int
}

// TransitBlock describes one super cluster of the details report
type TransitBlock struct {
	SuperCluster int
	// Tunnels lists the simulations with a tunnel cluster in this super cluster.
	Tunnels  []string
	Entries  map[string][]FrameRange
	Releases map[string][]FrameRange
}

// TestDataGenerator generates a TransportTools run under baseDir/tt and the
// simulation tree under baseDir/md
type TestDataGenerator struct {
	baseDir string
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{baseDir: baseDir}
}

// GetBaseDir returns the base directory
func (g *TestDataGenerator) GetBaseDir() string {
	return g.baseDir
}

// ResultsDir is the TransportTools results directory
func (g *TestDataGenerator) ResultsDir() string {
	return filepath.Join(g.baseDir, "tt")
}

// SimulationsDir holds one directory per simulation
func (g *TestDataGenerator) SimulationsDir() string {
	return filepath.Join(g.baseDir, "md")
}

// WriteFile writes content to path, creating its directory
func (g *TestDataGenerator) WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// EventStatistics writes the events report of a comparative folder with one
// row per super cluster and the unassigned trailer.
func (g *TestDataGenerator) EventStatistics(folder string, superClusters ...int) error {
	var b strings.Builder
	for i := 0; i < parser.EventStatistics.HeaderLines; i++ {
		fmt.Fprintf(&b, "# header %d\n", i+1)
	}
	for _, sc := range superClusters {
		fmt.Fprintf(&b, "%d, 3, 4500, 375.0, 1.652, 0.210, 2.431, 12.5, 3.1, 1.12, 0.08, 0.61, 0.12, 5.3, 10, 6, 4\n", sc)
	}
	b.WriteString("Total number of unassigned events: 7, 4, 3\n")

	path := filepath.Join(g.ResultsDir(), ComparativeDir, folder, parser.EventStatisticsFile)
	return g.WriteFile(path, b.String())
}

func writeEvents(b *strings.Builder, kind string, events map[string][]FrameRange) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )\n", kind)

	sims := make([]string, 0, len(events))
	for sim := range events {
		sims = append(sims, sim)
	}
	sort.Strings(sims)
	for _, sim := range sims {
		fmt.Fprintf(b, "from %s:", sim)
		for i, e := range events[sim] {
			fmt.Fprintf(b, " %d, (WAT:%d), %d->%d;", i+1, 1000+i, e.Start, e.End)
		}
		b.WriteString("\n")
	}
}

// TransitDetails writes the super cluster details report
func (g *TestDataGenerator) TransitDetails(blocks ...TransitBlock) error {
	var b strings.Builder
	b.WriteString("TransportTools super cluster details\n\n")
	for _, block := range blocks {
		fmt.Fprintf(&b, "Supercluster ID %d\n\nDetails on tunnel network:\nTunnel clusters:\n", block.SuperCluster)
		for i, sim := range block.Tunnels {
			fmt.Fprintf(&b, "from %s: %d\n", sim, i+1)
		}
		b.WriteString("\nDetails on transport events:\n")
		writeEvents(&b, "entry", block.Entries)
		writeEvents(&b, "release", block.Releases)
		b.WriteString(strings.Repeat("-", 120) + "\n")
	}

	path := filepath.Join(g.ResultsDir(), DetailsDir, details.TransitFile)
	return g.WriteFile(path, b.String())
}

// Outliers writes the unassigned events report with the given number of entry
// and release events per simulation.
func (g *TestDataGenerator) Outliers(entries, releases map[string]int) error {
	var b strings.Builder
	b.WriteString("Outlier transport events\n\n")
	b.WriteString("Details on transport events:\n")
	writeCounts := func(kind string, counts map[string]int) {
		fmt.Fprintf(&b, "%s: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )\n", kind)
		sims := make([]string, 0, len(counts))
		for sim := range counts {
			sims = append(sims, sim)
		}
		sort.Strings(sims)
		for _, sim := range sims {
			fmt.Fprintf(&b, "from %s:%s\n", sim, strings.Repeat(" 1, (WAT:1), 1->2;", counts[sim]))
		}
	}
	writeCounts("entry", entries)
	writeCounts("release", releases)

	path := filepath.Join(g.ResultsDir(), DetailsDir, details.OutlierFile)
	return g.WriteFile(path, b.String())
}

// Group is one tunnel group of the manifest
type Group struct {
	Name          string
	SuperClusters []int
}

// Manifest writes water-models.yaml pointing at the generated run and returns
// its path. Logs, cache and outputs stay under the base directory.
func (g *TestDataGenerator) Manifest(ids []string, groups []Group, extra string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "transport_tools:\n  results_dir: %s\n  comparative_dir: %s\n  details_dir: %s\n",
		g.ResultsDir(), ComparativeDir, DetailsDir)
	fmt.Fprintf(&b, "simulations:\n  results_dir: %s\n  ids: [%s]\n", g.SimulationsDir(), strings.Join(ids, ", "))

	b.WriteString("groups:\n")
	for _, grp := range groups {
		scs := make([]string, len(grp.SuperClusters))
		for i, sc := range grp.SuperClusters {
			scs[i] = fmt.Sprint(sc)
		}
		fmt.Fprintf(&b, "  - name: %s\n    superclusters: [%s]\n", grp.Name, strings.Join(scs, ", "))
	}

	fmt.Fprintf(&b, "cache:\n  dir: %s\n", filepath.Join(g.baseDir, "cache"))
	fmt.Fprintf(&b, "logging:\n  file: %s\n", filepath.Join(g.baseDir, "logs", "app.log"))
	fmt.Fprintf(&b, "output:\n  dir: %s\n", filepath.Join(g.baseDir, "out"))
	b.WriteString(extra)

	path := filepath.Join(g.baseDir, "water-models.yaml")
	return path, g.WriteFile(path, b.String())
}

// CleanupTestData removes everything below the base directory
func (g *TestDataGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}
