package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aravindramcb/water-models/internal/core/stats"
	"github.com/aravindramcb/water-models/internal/data/scanner"
	"github.com/aravindramcb/water-models/internal/data/tevents"
	"github.com/aravindramcb/water-models/internal/external/cpptraj"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/util"
)

// DatabaseFile is the default name of the transport event database
const DatabaseFile = "transport_events.json"

// EventDatabase reads the exact matching analysis of every configured
// simulation and saves the matched events to path.
func (a *Analyzer) EventDatabase(path string) ([]formatter.Table, error) {
	root := a.config.TransportTools.ExactMatchingPath()
	dirs, err := scanner.ListDirs(root)
	if err != nil {
		return nil, err
	}
	available := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		available[d] = true
	}

	var sims []string
	for _, s := range a.sims {
		if !available[s.ID] {
			util.LogWarn("No exact matching analysis", util.F("simulation", s.ID))
			continue
		}
		sims = append(sims, s.ID)
	}

	th := tevents.Thresholds{
		Distance: a.config.Analysis.DistanceThreshold,
		Fraction: a.config.Analysis.FractionThreshold,
	}
	start := time.Now()
	db, err := tevents.Build(root, sims, th, a.config.Concurrency())
	if err != nil {
		return nil, err
	}
	util.LogDebug(fmt.Sprintf("Event database built in %v from %d simulations", time.Since(start), len(sims)))

	if err := db.Save(path); err != nil {
		return nil, err
	}
	util.LogInfo("Saved transport event database", util.F("path", path))

	t := formatter.Table{
		Title:   "Matched transport events",
		Headers: []string{"Simulation", "Events", "Frames"},
		Notes: []string{
			fmt.Sprintf("distance <= %s, fraction >= %s", util.FormatFloat(th.Distance, 2), util.FormatFloat(th.Fraction, 2)),
			"saved: " + path,
		},
	}
	for _, sim := range db.Names() {
		t.Rows = append(t.Rows, []string{
			sim, strconv.Itoa(len(db.Simulations[sim])), strconv.Itoa(len(db.Frames(sim))),
		})
	}
	return []formatter.Table{t}, nil
}

// SnapshotOptions control the cpptraj jobs of Snapshots
type SnapshotOptions struct {
	Database string
	// OutDir receives the frames, hbonds and contacts sub-directories.
	OutDir string
	HBonds bool
	// ProteinSize enables the native contact analysis against residues
	// 1..ProteinSize when positive.
	ProteinSize int
}

// Snapshots extracts the PDB snapshot of every event in the database and runs
// the requested per event analyses on them.
func (a *Analyzer) Snapshots(ctx context.Context, runner cpptraj.Runner, opts SnapshotOptions) ([]formatter.Table, error) {
	db, err := tevents.Load(opts.Database)
	if err != nil {
		return nil, err
	}

	client := cpptraj.NewClient(runner, cpptraj.Options{
		Topology:   a.config.Cpptraj.Topology,
		Trajectory: a.config.Cpptraj.Trajectory,
		BatchSize:  a.config.Cpptraj.BatchSize,
		WorkDir:    a.config.Cpptraj.WorkDir,
	})
	framesDir := filepath.Join(opts.OutDir, "frames")
	hbondDir := filepath.Join(opts.OutDir, "hbonds")
	contactsDir := filepath.Join(opts.OutDir, "contacts")

	t := formatter.Table{
		Title:   "cpptraj runs",
		Headers: []string{"Simulation", "Events", "Frames", "Extract", "Hbond", "Contacts"},
	}
	for _, sim := range db.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events := db.Simulations[sim]
		if len(events) == 0 {
			continue
		}

		extracted, err := client.ExtractFrames(ctx, sim, events, a.config.Simulations.ResultsDir, framesDir)
		if err != nil {
			return nil, err
		}
		row := []string{sim, strconv.Itoa(len(events)), strconv.Itoa(len(cpptraj.Frames(events))), strconv.Itoa(extracted), "-", "-"}

		if opts.HBonds {
			n, err := client.HBonds(ctx, sim, events, framesDir, hbondDir)
			if err != nil {
				return nil, err
			}
			row[4] = strconv.Itoa(n)
		}
		if opts.ProteinSize > 0 {
			n, err := client.NativeContacts(ctx, sim, events, framesDir, contactsDir, opts.ProteinSize)
			if err != nil {
				return nil, err
			}
			row[5] = strconv.Itoa(n)
		}
		t.Rows = append(t.Rows, row)
	}
	t.Notes = append(t.Notes, "output: "+opts.OutDir)
	if !opts.HBonds {
		return []formatter.Table{t}, nil
	}

	radii, err := a.hbondRadii(db, hbondDir)
	if err != nil {
		return nil, err
	}
	return []formatter.Table{t, radii}, nil
}

// HBondRadii groups the bottleneck radius of every event that passes the
// fraction threshold by the hydrogen bond count of its snapshot. The counts
// are read from the outputs Snapshots writes to outDir/hbonds.
func (a *Analyzer) HBondRadii(database, outDir string) ([]formatter.Table, error) {
	db, err := tevents.Load(database)
	if err != nil {
		return nil, err
	}
	t, err := a.hbondRadii(db, filepath.Join(outDir, "hbonds"))
	if err != nil {
		return nil, err
	}
	return []formatter.Table{t}, nil
}

func (a *Analyzer) hbondRadii(db *tevents.Database, hbondDir string) (formatter.Table, error) {
	threshold := a.config.Analysis.FractionThreshold
	byCount := make(map[int][]float64)
	var missing []string
	read := 0
	for _, sim := range db.Names() {
		for _, ev := range db.Simulations[sim] {
			if ev.Fraction < threshold {
				continue
			}
			path, _ := cpptraj.HBondPaths(hbondDir, sim, ev)
			n, err := cpptraj.ReadHBondCount(path)
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, fmt.Sprintf("%s/%d", sim, ev.ID))
				continue
			}
			if err != nil {
				return formatter.Table{}, err
			}
			byCount[n] = append(byCount[n], ev.Radius)
			read++
		}
	}

	util.LogInfof("Read hbond counts of %d events from %s", read, hbondDir)

	counts := make([]int, 0, len(byCount))
	for n := range byCount {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	t := formatter.Table{
		Title:   "Bottleneck radius by hydrogen bond count",
		Headers: []string{"H-bonds", "Events", "Mean", "Std", "Median", "Min", "Max"},
		Notes:   []string{"fraction >= " + util.FormatFloat(threshold, 2)},
		Data:    byCount,
	}
	for _, n := range counts {
		t.Rows = append(t.Rows, append([]string{strconv.Itoa(n)}, summaryCells(stats.Describe(byCount[n]))...))
	}
	if len(missing) > 0 {
		util.LogWarn("Events without hbond output", util.F("count", len(missing)), util.F("dir", hbondDir))
		t.Notes = append(t.Notes, "no hbond output: "+strings.Join(missing, ", "))
	}
	return t, nil
}
