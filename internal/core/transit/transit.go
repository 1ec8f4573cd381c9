// Package transit collects the retention times of water molecules passing
// through each tunnel group, per simulation.
package transit

import (
	"fmt"
	"sort"

	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/data/details"
)

// Measure selects which events a duration sample is drawn from.
type Measure string

const (
	MeasureEntry    Measure = "entry"
	MeasureRelease  Measure = "release"
	MeasureCombined Measure = "combined"
)

// ParseMeasure validates a measure name; empty means MeasureCombined.
func ParseMeasure(s string) (Measure, error) {
	switch Measure(s) {
	case "", MeasureCombined:
		return MeasureCombined, nil
	case MeasureEntry, MeasureRelease:
		return Measure(s), nil
	default:
		return "", fmt.Errorf("unknown measure %q (want entry, release or combined)", s)
	}
}

// Selector decides whether super cluster sc of simulation sim counts towards group.
type Selector func(group, sim string, sc int) bool

// ByAttribution counts a super cluster for a simulation only when the
// comparative folder of that simulation attributed it to the group.
func ByAttribution(assignments map[string]grouping.Assignment) Selector {
	return func(group, sim string, sc int) bool {
		s, err := model.ParseSimulationID(sim)
		if err != nil {
			return false
		}
		a, ok := assignments[s.ComparativeFolder()]
		if !ok {
			return false
		}
		return a.Contains(group, sc)
	}
}

// ByDefinition ignores the folder attribution and uses the group definitions
// directly. Others receives every super cluster no group defines.
func ByDefinition(defs grouping.Definitions) Selector {
	return func(group, _ string, sc int) bool {
		if group == grouping.Others {
			return !defs.Defined(sc)
		}
		def, ok := defs.Lookup(group)
		if !ok {
			return false
		}
		for _, id := range def.SuperClusters {
			if id == sc {
				return true
			}
		}
		return false
	}
}

// SimulationEvents holds the durations of one simulation inside one group.
type SimulationEvents struct {
	Simulation string `json:"simulation"`
	Entry      []int  `json:"entry"`
	Release    []int  `json:"release"`
	// Frames is the sorted set of frames covered by any event. EntryFrames and
	// ReleaseFrames split it by event kind. Only filled when frames are expanded.
	Frames        []int `json:"frames,omitempty"`
	EntryFrames   []int `json:"entry_frames,omitempty"`
	ReleaseFrames []int `json:"release_frames,omitempty"`
}

// Durations returns the durations of one measure.
func (s *SimulationEvents) Durations(m Measure) []int {
	switch m {
	case MeasureEntry:
		return s.Entry
	case MeasureRelease:
		return s.Release
	default:
		out := make([]int, 0, len(s.Entry)+len(s.Release))
		out = append(out, s.Entry...)
		return append(out, s.Release...)
	}
}

// FramesOf returns the expanded frames of one measure.
func (s *SimulationEvents) FramesOf(m Measure) []int {
	switch m {
	case MeasureEntry:
		return s.EntryFrames
	case MeasureRelease:
		return s.ReleaseFrames
	default:
		return s.Frames
	}
}

// Count is the number of events of one measure.
func (s *SimulationEvents) Count(m Measure) int {
	return len(s.Durations(m))
}

// Group is the transit data of one tunnel group.
type Group struct {
	Name string `json:"name"`
	// SuperClusters contributed at least one simulation, ascending.
	SuperClusters []int               `json:"super_clusters"`
	Simulations   []*SimulationEvents `json:"simulations"`
	index         map[string]int
}

// Simulation returns the events of sim.
func (g *Group) Simulation(sim string) (*SimulationEvents, bool) {
	i, ok := g.index[sim]
	if !ok {
		return nil, false
	}
	return g.Simulations[i], true
}

// Pooled concatenates the durations of every simulation.
func (g *Group) Pooled(m Measure) []float64 {
	var out []float64
	for _, s := range g.Simulations {
		for _, d := range s.Durations(m) {
			out = append(out, float64(d))
		}
	}
	return out
}

// Sample is the pooled durations of the simulations sharing a comparative folder.
type Sample struct {
	Folder string    `json:"folder"`
	Values []float64 `json:"values"`
}

// ByFolder pools durations per comparative folder. Folders are ordered by
// model, then epoch. Simulations whose id is not canonical are skipped.
func (g *Group) ByFolder(m Measure) []Sample {
	var sims []model.Simulation
	for _, s := range g.Simulations {
		parsed, err := model.ParseSimulationID(s.Simulation)
		if err != nil {
			continue
		}
		sims = append(sims, parsed)
	}

	var out []Sample
	for _, fg := range model.GroupByFolder(sims) {
		sample := Sample{Folder: fg.Folder, Values: []float64{}}
		for _, s := range fg.Simulations {
			ev, _ := g.Simulation(s.ID)
			for _, d := range ev.Durations(m) {
				sample.Values = append(sample.Values, float64(d))
			}
		}
		out = append(out, sample)
	}
	return out
}

// Occupancy is the fraction of a simulation's frames covered by at least one
// event of measure m. It needs expanded frames and a positive frame count.
func (g *Group) Occupancy(sim string, m Measure, framesPerSimulation int) (float64, bool) {
	s, ok := g.Simulation(sim)
	if !ok || framesPerSimulation <= 0 {
		return 0, false
	}
	frames := s.FramesOf(m)
	if frames == nil {
		return 0, false
	}
	return float64(len(frames)) / float64(framesPerSimulation), true
}

// Options controls Collect.
type Options struct {
	// Select filters super clusters per simulation. Required.
	Select Selector
	// Simulations fixes the reported simulations and their order. Simulations
	// without events are reported with empty samples. When empty, every
	// simulation found in the report is used, sorted.
	Simulations []string
	// ExpandFrames fills the frame sets of SimulationEvents.
	ExpandFrames bool
}

// Collect walks every block of the transit report and buckets event durations
// per group and simulation. Groups come out in the order of names.
func Collect(tr *details.Transit, names []string, opts Options) ([]*Group, error) {
	if opts.Select == nil {
		return nil, fmt.Errorf("transit: no selector")
	}

	sims := opts.Simulations
	if len(sims) == 0 {
		sims = reportSimulations(tr)
	}

	groups := make([]*Group, 0, len(names))
	for _, name := range names {
		g := newGroup(name, sims)
		entryFrames := make(map[string]map[int]bool)
		releaseFrames := make(map[string]map[int]bool)
		contributed := make(map[int]bool)

		for _, b := range tr.Blocks {
			for _, sim := range b.Simulations {
				ev, ok := g.Simulation(sim)
				if !ok || !opts.Select(name, sim, b.SuperCluster) {
					continue
				}
				contributed[b.SuperCluster] = true

				for _, e := range b.Entries[sim] {
					ev.Entry = append(ev.Entry, e.Duration())
				}
				for _, e := range b.Releases[sim] {
					ev.Release = append(ev.Release, e.Duration())
				}
				if opts.ExpandFrames {
					addFrames(entryFrames, sim, b.Entries[sim])
					addFrames(releaseFrames, sim, b.Releases[sim])
				}
			}
		}

		if opts.ExpandFrames {
			for _, s := range g.Simulations {
				s.EntryFrames = sortedKeys(entryFrames[s.Simulation])
				s.ReleaseFrames = sortedKeys(releaseFrames[s.Simulation])
				s.Frames = sortedKeys(union(entryFrames[s.Simulation], releaseFrames[s.Simulation]))
			}
		}
		g.SuperClusters = make([]int, 0, len(contributed))
		for sc := range contributed {
			g.SuperClusters = append(g.SuperClusters, sc)
		}
		sort.Ints(g.SuperClusters)

		groups = append(groups, g)
	}
	return groups, nil
}

func newGroup(name string, sims []string) *Group {
	g := &Group{
		Name:        name,
		Simulations: make([]*SimulationEvents, 0, len(sims)),
		index:       make(map[string]int, len(sims)),
	}
	for _, sim := range sims {
		if _, dup := g.index[sim]; dup {
			continue
		}
		g.index[sim] = len(g.Simulations)
		g.Simulations = append(g.Simulations, &SimulationEvents{
			Simulation: sim,
			Entry:      []int{},
			Release:    []int{},
		})
	}
	return g
}

// reportSimulations lists every simulation named in a tunnel list of the
// report. Canonical ids are ordered by epoch, model and replica; anything else
// follows, sorted by name.
func reportSimulations(tr *details.Transit) []string {
	seen := make(map[string]bool)
	var canonical []model.Simulation
	var other []string
	for _, b := range tr.Blocks {
		for _, sim := range b.Simulations {
			if seen[sim] {
				continue
			}
			seen[sim] = true
			if s, err := model.ParseSimulationID(sim); err == nil {
				canonical = append(canonical, s)
			} else {
				other = append(other, sim)
			}
		}
	}
	model.Sort(canonical)
	sort.Strings(other)
	return append(model.IDs(canonical), other...)
}

func addFrames(sets map[string]map[int]bool, sim string, events []details.Event) {
	if sets[sim] == nil {
		sets[sim] = make(map[int]bool)
	}
	for _, e := range events {
		for _, f := range e.Frames() {
			sets[sim][f] = true
		}
	}
}

func union(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
