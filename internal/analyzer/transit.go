package analyzer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/core/stats"
	"github.com/aravindramcb/water-models/internal/core/transit"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/util"
)

// TransitOptions select the events behind a duration analysis
type TransitOptions struct {
	Measure transit.Measure
	// Group restricts the analysis to one group; empty means every group.
	Group string
	// Frames expands events into frames and reports occupancy.
	Frames bool
	// ByDefinition selects super clusters by the group definitions instead of
	// each comparative folder's attribution.
	ByDefinition bool
}

// CollectTransit buckets the transit events into groups
func (a *Analyzer) CollectTransit(opts TransitOptions) ([]*transit.Group, error) {
	names := a.groupNames()
	if opts.Group != "" {
		if _, err := a.group(opts.Group); err != nil {
			return nil, err
		}
		names = []string{opts.Group}
	}

	tr, err := a.Transit()
	if err != nil {
		return nil, err
	}

	var sel transit.Selector
	if opts.ByDefinition {
		sel = transit.ByDefinition(a.config.GroupDefinitions())
	} else {
		assignments, err := a.Attribution()
		if err != nil {
			return nil, err
		}
		sel = transit.ByAttribution(assignments)
	}

	start := time.Now()
	groups, err := transit.Collect(tr, names, transit.Options{
		Select:       sel,
		Simulations:  model.IDs(a.sims),
		ExpandFrames: opts.Frames,
	})
	if err != nil {
		return nil, err
	}
	util.LogDebug(fmt.Sprintf("Transit collection duration: %v, %d groups", time.Since(start), len(groups)))
	return groups, nil
}

type durationSummary struct {
	Simulation string        `json:"simulation"`
	Summary    stats.Summary `json:"summary"`
	Occupancy  *float64      `json:"occupancy,omitempty"`
}

// Retention describes the event durations of every group per simulation
func (a *Analyzer) Retention(opts TransitOptions) ([]formatter.Table, error) {
	groups, err := a.CollectTransit(opts)
	if err != nil {
		return nil, err
	}

	framesPerSim := a.config.Simulations.FramesPerSimulation
	occupancy := opts.Frames && framesPerSim > 0

	headers := []string{"Simulation", "Events", "Mean", "Std", "Median", "Min", "Max"}
	if occupancy {
		headers = append(headers, "Occupancy")
	}

	var tables []formatter.Table
	for _, g := range groups {
		t := formatter.Table{
			Title:   fmt.Sprintf("%s %s durations (frames)", g.Name, opts.Measure),
			Headers: headers,
		}
		var data []durationSummary
		for _, s := range g.Simulations {
			sum := stats.Describe(stats.Ints(s.Durations(opts.Measure)))
			row := summaryRow(s.Simulation, sum)
			ds := durationSummary{Simulation: s.Simulation, Summary: sum}
			if occupancy {
				frac, _ := g.Occupancy(s.Simulation, opts.Measure, framesPerSim)
				row = append(row, util.FormatFloat(frac, 4))
				ds.Occupancy = &frac
			}
			t.Rows = append(t.Rows, row)
			data = append(data, ds)
		}

		pooled := stats.Describe(g.Pooled(opts.Measure))
		row := summaryRow("all", pooled)
		if occupancy {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
		data = append(data, durationSummary{Simulation: "all", Summary: pooled})
		t.Data = data

		t.Notes = append(t.Notes, fmt.Sprintf("super clusters: %s; one frame is %s ps",
			util.FormatInts(g.SuperClusters), util.FormatFloat(a.config.Simulations.FrameTimePs, 1)))
		if opts.Frames && !occupancy {
			t.Notes = append(t.Notes, "occupancy needs simulations.frames_per_simulation")
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func summaryRow(label string, s stats.Summary) []string {
	return []string{
		label,
		strconv.Itoa(s.N),
		util.FormatFloat(s.Mean, 2),
		util.FormatFloat(s.Std, 2),
		util.FormatFloat(s.Median, 1),
		util.FormatFloat(s.Min, 0),
		util.FormatFloat(s.Max, 0),
	}
}

// Comparison axes of the rank tests
const (
	ByFolder = "folder"
	ByModel  = "model"
	ByEpoch  = "epoch"
)

// Values compared by the rank tests
const (
	SourceDurations  = "durations"
	SourceOccurrence = "occurrence"
	SourceRadii      = "radii"
)

// StatsOptions configure the rank tests
type StatsOptions struct {
	TransitOptions
	// By is ByFolder to compare every comparative folder at once, ByModel to
	// compare the water models within each epoch, or ByEpoch to compare the
	// epochs with the models pooled.
	By string
	// Source is SourceDurations (event durations, the default),
	// SourceOccurrence (fraction of each simulation's frames covered by
	// events of the measure) or SourceRadii (bottleneck radii of the group's
	// tunnel).
	Source string
}

func (o StatsOptions) validate() error {
	switch o.By {
	case "", ByFolder, ByModel, ByEpoch:
	default:
		return fmt.Errorf("unknown comparison %q (want %s, %s or %s)", o.By, ByFolder, ByModel, ByEpoch)
	}
	switch o.Source {
	case "", SourceDurations, SourceOccurrence, SourceRadii:
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", o.Source, SourceDurations, SourceOccurrence, SourceRadii)
	}
	return nil
}

func (o StatsOptions) describe() string {
	switch o.Source {
	case SourceOccurrence:
		return fmt.Sprintf("%s occurrence fractions", o.Measure)
	case SourceRadii:
		return "bottleneck radii"
	default:
		return fmt.Sprintf("%s durations", o.Measure)
	}
}

// groupSamples are the per folder values of one group
type groupSamples struct {
	Name    string
	Samples []transit.Sample
}

// folderSamples pools per simulation values into one sample per comparative
// folder.
func (a *Analyzer) folderSamples(values map[string][]float64) []transit.Sample {
	var out []transit.Sample
	for _, fg := range a.Folders() {
		s := transit.Sample{Folder: fg.Folder, Values: []float64{}}
		for _, sim := range fg.Simulations {
			s.Values = append(s.Values, values[sim.ID]...)
		}
		out = append(out, s)
	}
	return out
}

func (a *Analyzer) statsSamples(opts StatsOptions) ([]groupSamples, error) {
	switch opts.Source {
	case SourceRadii:
		names := make([]string, 0, len(a.config.Groups))
		if opts.Group != "" {
			if opts.Group == grouping.Others {
				return nil, fmt.Errorf("bottleneck radii need a configured group")
			}
			names = append(names, opts.Group)
		} else {
			for _, g := range a.config.Groups {
				names = append(names, g.Name)
			}
		}

		var out []groupSamples
		for _, name := range names {
			def, err := a.group(name)
			if err != nil {
				return nil, err
			}
			bn, err := a.groupRadii(def)
			if err != nil {
				return nil, err
			}
			out = append(out, groupSamples{Name: name, Samples: a.folderSamples(bn.Radii)})
		}
		return out, nil

	case SourceOccurrence:
		framesPerSim := a.config.Simulations.FramesPerSimulation
		if framesPerSim <= 0 {
			return nil, fmt.Errorf("occurrence fractions need simulations.frames_per_simulation")
		}
		topts := opts.TransitOptions
		topts.Frames = true
		groups, err := a.CollectTransit(topts)
		if err != nil {
			return nil, err
		}

		out := make([]groupSamples, 0, len(groups))
		for _, g := range groups {
			values := make(map[string][]float64, len(g.Simulations))
			for _, s := range g.Simulations {
				if frac, ok := g.Occupancy(s.Simulation, opts.Measure, framesPerSim); ok {
					values[s.Simulation] = []float64{frac}
				}
			}
			out = append(out, groupSamples{Name: g.Name, Samples: a.folderSamples(values)})
		}
		return out, nil

	default:
		groups, err := a.CollectTransit(opts.TransitOptions)
		if err != nil {
			return nil, err
		}
		out := make([]groupSamples, 0, len(groups))
		for _, g := range groups {
			out = append(out, groupSamples{Name: g.Name, Samples: g.ByFolder(opts.Measure)})
		}
		return out, nil
	}
}

// comparisonSet is one Kruskal-Wallis test: labelled samples
type comparisonSet struct {
	Label   string
	Samples []transit.Sample
}

func (a *Analyzer) comparisonSets(samples []transit.Sample, by string) []comparisonSet {
	if by == "" || by == ByFolder {
		return []comparisonSet{{Label: "all", Samples: samples}}
	}

	folders := make(map[string]model.FolderGroup)
	for _, fg := range a.Folders() {
		folders[fg.Folder] = fg
	}
	epochs := a.epochs()

	if by == ByEpoch {
		set := comparisonSet{Label: "all"}
		for _, epoch := range epochs {
			pooled := transit.Sample{Folder: epoch, Values: []float64{}}
			for _, s := range samples {
				if fg, ok := folders[s.Folder]; ok && fg.Epoch == epoch {
					pooled.Values = append(pooled.Values, s.Values...)
				}
			}
			set.Samples = append(set.Samples, pooled)
		}
		return []comparisonSet{set}
	}

	var sets []comparisonSet
	for _, epoch := range epochs {
		set := comparisonSet{Label: epoch}
		for _, s := range samples {
			fg, ok := folders[s.Folder]
			if !ok || fg.Epoch != epoch {
				continue
			}
			set.Samples = append(set.Samples, transit.Sample{Folder: fg.Model, Values: s.Values})
		}
		sets = append(sets, set)
	}
	return sets
}

type testResult struct {
	Group       string              `json:"group"`
	Set         string              `json:"set"`
	Labels      []string            `json:"labels"`
	Kruskal     stats.KruskalResult `json:"kruskal_wallis"`
	Comparisons []stats.Comparison  `json:"dunn"`
}

// Stats runs a Kruskal-Wallis test over the values of each group with Dunn's
// post-hoc test for every pair.
func (a *Analyzer) Stats(opts StatsOptions) ([]formatter.Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	groups, err := a.statsSamples(opts)
	if err != nil {
		return nil, err
	}

	kw := formatter.Table{
		Title:   fmt.Sprintf("Kruskal-Wallis on %s", opts.describe()),
		Headers: []string{"Group", "Set", "Samples", "N", "H", "DF", "p"},
	}
	var posthoc []formatter.Table
	var results []testResult

	for _, g := range groups {
		for _, set := range a.comparisonSets(g.Samples, opts.By) {
			var labels []string
			var values [][]float64
			n := 0
			for _, s := range set.Samples {
				if len(s.Values) == 0 {
					kw.Notes = append(kw.Notes, fmt.Sprintf("%s/%s: %s has no values", g.Name, set.Label, s.Folder))
					continue
				}
				labels = append(labels, s.Folder)
				values = append(values, s.Values)
				n += len(s.Values)
			}

			res, err := stats.KruskalWallis(values...)
			if err != nil {
				util.LogDebugf("Skip test of %s/%s: %v", g.Name, set.Label, err)
				kw.Notes = append(kw.Notes, fmt.Sprintf("%s/%s: %v", g.Name, set.Label, err))
				continue
			}
			kw.Rows = append(kw.Rows, []string{
				g.Name, set.Label, strconv.Itoa(len(values)), strconv.Itoa(n),
				util.FormatFloat(res.H, 4), strconv.Itoa(res.DF), util.FormatPValue(res.PValue),
			})

			comparisons, err := stats.Dunn(values...)
			if err != nil {
				return nil, fmt.Errorf("dunn test of %s/%s: %w", g.Name, set.Label, err)
			}
			pt := formatter.Table{
				Title:   fmt.Sprintf("Dunn %s %s (Bonferroni)", g.Name, set.Label),
				Headers: []string{"A", "B", "Z", "p", "p adjusted"},
				Align:   []formatter.Align{formatter.AlignLeft, formatter.AlignLeft},
			}
			for _, c := range comparisons {
				pt.Rows = append(pt.Rows, []string{
					labels[c.A], labels[c.B],
					util.FormatFloat(c.Z, 4), util.FormatPValue(c.PValue), util.FormatPValue(c.Adjusted),
				})
			}
			posthoc = append(posthoc, pt)
			results = append(results, testResult{
				Group: g.Name, Set: set.Label, Labels: labels, Kruskal: res, Comparisons: comparisons,
			})
		}
	}
	kw.Data = results

	return append([]formatter.Table{kw}, posthoc...), nil
}
