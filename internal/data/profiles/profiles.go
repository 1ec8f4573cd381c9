// Package profiles reads per frame tables: the TransportTools super cluster
// CSV profiles and the CAVER tunnel characteristics of each simulation.
package profiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aravindramcb/water-models/internal/util"
)

var profileName = regexp.MustCompile(`^super_cluster_(\d+)\.csv$`)

// ProfileFile is the CSV profile name of a super cluster.
func ProfileFile(sc int) string {
	return fmt.Sprintf("super_cluster_%02d.csv", sc)
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// CountSnapshots reads a CSV profile, whose first two columns are the MD label
// and the snapshot number, and counts unique snapshots per MD label.
func CountSnapshots(r io.Reader, source string) (map[string]int, error) {
	cr := newReader(r)
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}

	seen := make(map[string]map[string]struct{})
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%s:%d: want md label and snapshot", source, line)
		}
		label := strings.TrimSpace(rec[0])
		snap := strings.TrimSpace(rec[1])
		if seen[label] == nil {
			seen[label] = make(map[string]struct{})
		}
		seen[label][snap] = struct{}{}
	}

	counts := make(map[string]int, len(seen))
	for label, snaps := range seen {
		counts[label] = len(snaps)
	}
	return counts, nil
}

// FrameCounts maps simulation -> super cluster -> frames in which the tunnel exists.
type FrameCounts map[string]map[int]int

// Total sums the frames of sim over the given super clusters.
func (fc FrameCounts) Total(sim string, superClusters []int) int {
	total := 0
	for _, sc := range superClusters {
		total += fc[sim][sc]
	}
	return total
}

// CountFrames reads the profile of each super cluster in dir. Every simulation
// in sims gets an entry; simulations absent from a profile count zero frames.
func CountFrames(dir string, superClusters []int, sims []string) (FrameCounts, error) {
	fc := make(FrameCounts, len(sims))
	for _, sim := range sims {
		fc[sim] = make(map[int]int, len(superClusters))
	}

	for _, sc := range superClusters {
		path := filepath.Join(dir, ProfileFile(sc))
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open profile of super cluster %d: %w", sc, err)
		}
		counts, err := CountSnapshots(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}

		for _, sim := range sims {
			fc[sim][sc] = counts[sim]
		}
	}
	return fc, nil
}

// ListSuperClusters returns the super cluster ids that have a profile in dir.
func ListSuperClusters(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := profileName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

const (
	clusterColumn    = "Tunnel cluster"
	bottleneckColumn = "Bottleneck radius"
)

// BottleneckRadii reads a CAVER tunnel_characteristics.csv and returns the
// bottleneck radius of every row belonging to cluster, in file order.
func BottleneckRadii(r io.Reader, source string, cluster int) ([]float64, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}

	ci, bi := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case clusterColumn:
			ci = i
		case bottleneckColumn:
			bi = i
		}
	}
	if ci < 0 || bi < 0 {
		return nil, fmt.Errorf("%s: columns %q and %q are required", source, clusterColumn, bottleneckColumn)
	}

	radii := []float64{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		if len(rec) <= ci || len(rec) <= bi {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[ci]))
		if err != nil || id != cluster {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[bi]), 64)
		if err != nil {
			line, _ := cr.FieldPos(bi)
			return nil, fmt.Errorf("%s:%d: invalid bottleneck radius %q", source, line, rec[bi])
		}
		radii = append(radii, v)
	}
	return radii, nil
}

// ReadBottleneckRadii reads the radii of cluster from the file at path. A
// missing file is logged and yields no radii.
func ReadBottleneckRadii(path string, cluster int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			util.LogWarn("Tunnel characteristics not found", util.F("path", path))
			return []float64{}, nil
		}
		return nil, fmt.Errorf("failed to open tunnel characteristics: %w", err)
	}
	defer f.Close()

	return BottleneckRadii(f, path, cluster)
}
