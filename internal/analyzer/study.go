package analyzer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/aravindramcb/water-models/internal/core/consolidate"
	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/core/stats"
	"github.com/aravindramcb/water-models/internal/data/aquaduct"
	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/aravindramcb/water-models/internal/data/helix"
	"github.com/aravindramcb/water-models/internal/data/profiles"
	"github.com/aravindramcb/water-models/internal/presentation/chart"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/util"
)

func fromConsolidated(title string, t consolidate.Table) formatter.Table {
	return formatter.Table{Title: title, Headers: t.Header, Rows: t.Rows}
}

// Consolidate counts the events of every group per simulation and writes the
// consolidation CSV files into dir. A chart of the folder totals is written to
// chartPath when set.
func (a *Analyzer) Consolidate(dir, chartPath string) ([]formatter.Table, error) {
	tr, err := a.Transit()
	if err != nil {
		return nil, err
	}
	assignments, err := a.Attribution()
	if err != nil {
		return nil, err
	}
	outliers, err := a.Outliers()
	if err != nil {
		return nil, err
	}

	res := consolidate.Build(tr, assignments, a.groupNames(), a.sims, outliers)
	files, err := res.WriteCSV(dir)
	if err != nil {
		return nil, err
	}

	results := fromConsolidated("Events per group and folder", res.ResultsTable())
	results.Data = res
	results.Notes = append(results.Notes, "written: "+strings.Join(files, ", "))

	totals := formatter.Table{
		Title:   "Event totals",
		Headers: append(append([]string{"Folder"}, res.Groups...), "unassigned"),
	}
	var bars []chart.Bar
	for _, fg := range res.Folders {
		row := []string{fg.Folder}
		for _, g := range res.Groups {
			n := res.Total(fg.Folder, g)
			row = append(row, strconv.Itoa(n))
			bars = append(bars, chart.Bar{Label: g + "_" + fg.Folder, Value: float64(n)})
		}
		row = append(row, strconv.Itoa(res.UnassignedTotal(fg.Folder)))
		totals.Rows = append(totals.Rows, row)
	}

	if chartPath != "" {
		err := chart.SavePNG(chartPath, func(w io.Writer) error {
			return chart.Bars(w, "Transport events per group", bars)
		})
		if err != nil {
			return nil, err
		}
		totals.Notes = append(totals.Notes, "chart: "+chartPath)
	}

	return []formatter.Table{
		results,
		totals,
		fromConsolidated("Unassigned events per simulation", res.UnassignedTable()),
		fromConsolidated("Unassigned events per folder", res.FolderUnassignedTable()),
	}, nil
}

// Occupancy counts the frames in which each simulation has a tunnel of every
// group, from the super cluster profiles before event assignment.
func (a *Analyzer) Occupancy() ([]formatter.Table, error) {
	dir := a.config.TransportTools.ProfilesPath()
	available, err := profiles.ListSuperClusters(dir)
	if err != nil {
		return nil, err
	}

	defs := a.config.GroupDefinitions()
	members := make(map[string][]int)
	for _, sc := range available {
		if !defs.Defined(sc) {
			members[grouping.Others] = append(members[grouping.Others], sc)
		}
	}
	present := make(map[int]bool, len(available))
	for _, sc := range available {
		present[sc] = true
	}
	for _, def := range defs {
		for _, sc := range def.SuperClusters {
			if present[sc] {
				members[def.Name] = append(members[def.Name], sc)
			} else {
				util.LogDebugf("No profile for super cluster %d of %s", sc, def.Name)
			}
		}
	}

	ids := model.IDs(a.sims)
	counts, err := profiles.CountFrames(dir, available, ids)
	if err != nil {
		return nil, err
	}

	names := a.groupNames()
	framesPerSim := a.config.Simulations.FramesPerSimulation
	t := formatter.Table{
		Title:   "Frames with an open tunnel",
		Headers: append([]string{"Simulation"}, names...),
		Data:    counts,
	}
	for _, id := range ids {
		row := []string{id}
		for _, name := range names {
			n := counts.Total(id, members[name])
			cell := strconv.Itoa(n)
			if framesPerSim > 0 {
				cell += fmt.Sprintf(" (%s)", util.FormatFloat(stats.Fraction(n, framesPerSim), 3))
			}
			row = append(row, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	for _, name := range names {
		t.Notes = append(t.Notes, fmt.Sprintf("%s: %s", name, util.FormatInts(members[name])))
	}
	return []formatter.Table{t}, nil
}

// groupBottlenecks holds the bottleneck radii of a group's tunnel per simulation.
type groupBottlenecks struct {
	Clusters map[string]int
	Radii    map[string][]float64
	Missing  []string
}

// groupRadii maps the group's super clusters to CAVER clusters and reads the
// bottleneck radii of that cluster in every simulation.
func (a *Analyzer) groupRadii(def grouping.Definition) (*groupBottlenecks, error) {
	ids := model.IDs(a.sims)
	path := a.config.TransportTools.DetailsFile(details.InitialFile)
	params := util.FormatInts(def.SuperClusters) + "|" + strings.Join(ids, ",")
	mapping, err := cached(a, "caver", path, params, func() (details.CaverMapping, error) {
		return details.ReadInitialDetails(path, def.SuperClusters, ids)
	})
	if err != nil {
		return nil, err
	}

	out := &groupBottlenecks{
		Clusters: mapping.Clusters,
		Radii:    make(map[string][]float64, len(mapping.Clusters)),
		Missing:  mapping.Missing,
	}
	for _, id := range ids {
		cluster, ok := mapping.Clusters[id]
		if !ok {
			continue
		}
		file := a.config.Simulations.SimulationFile(id, a.config.Simulations.CaverCharacteristics)
		radii, err := cached(a, "bottleneck", file, strconv.Itoa(cluster), func() ([]float64, error) {
			return profiles.ReadBottleneckRadii(file, cluster)
		})
		if err != nil {
			return nil, err
		}
		out.Radii[id] = radii
	}
	return out, nil
}

// Bottleneck follows the bottleneck radius of a group's tunnel through each
// simulation, using the CAVER cluster behind the group's super clusters.
func (a *Analyzer) Bottleneck(group, chartPath string) ([]formatter.Table, error) {
	if group == grouping.Others {
		return nil, fmt.Errorf("bottleneck needs a configured group")
	}
	def, err := a.group(group)
	if err != nil {
		return nil, err
	}

	bn, err := a.groupRadii(def)
	if err != nil {
		return nil, err
	}

	t := formatter.Table{
		Title:   fmt.Sprintf("Bottleneck radius of %s", group),
		Headers: []string{"Simulation", "CAVER cluster", "Frames", "Mean", "Std", "Median", "Min", "Max"},
	}
	frameTimeNs := a.config.Simulations.FrameTimePs / 1000
	var series []chart.Series
	summaries := make(map[string]stats.Summary)

	for _, id := range model.IDs(a.sims) {
		cluster, ok := bn.Clusters[id]
		if !ok {
			continue
		}
		radii := bn.Radii[id]
		s := stats.Describe(radii)
		summaries[id] = s
		t.Rows = append(t.Rows, []string{
			id, strconv.Itoa(cluster), strconv.Itoa(s.N),
			util.FormatFloat(s.Mean, 3), util.FormatFloat(s.Std, 3), util.FormatFloat(s.Median, 3),
			util.FormatFloat(s.Min, 3), util.FormatFloat(s.Max, 3),
		})

		if len(radii) < 2 {
			continue
		}
		sr := chart.Series{Name: id, X: make([]float64, len(radii)), Y: radii}
		for i := range radii {
			sr.X[i] = float64(i) * frameTimeNs
		}
		series = append(series, sr)
	}
	t.Data = summaries

	if len(bn.Missing) > 0 {
		t.Notes = append(t.Notes, "no CAVER cluster in: "+strings.Join(bn.Missing, ", "))
	}

	if chartPath != "" {
		if len(series) == 0 {
			return nil, fmt.Errorf("no bottleneck radii to plot for %s", group)
		}
		err := chart.SavePNG(chartPath, func(w io.Writer) error {
			return chart.Lines(w, fmt.Sprintf("Bottleneck radius of %s", group), "Time (ns)", "Radius (Å)", series)
		})
		if err != nil {
			return nil, err
		}
		t.Notes = append(t.Notes, "chart: "+chartPath)
	}
	return []formatter.Table{t}, nil
}

// Waters counts the water molecules AQUA-DUCT traced in every simulation
func (a *Analyzer) Waters(chartPath string) ([]formatter.Table, error) {
	perSim := formatter.Table{
		Title:   "Traced water molecules",
		Headers: []string{"Simulation", "Traced"},
	}
	perFolder := formatter.Table{
		Title:   "Traced water molecules per folder",
		Headers: []string{"Folder", "Simulations", "Total", "Mean"},
	}

	counts := make(map[string]int)
	var bars []chart.Bar
	for _, fg := range a.Folders() {
		var values []float64
		for _, s := range fg.Simulations {
			file := a.config.Simulations.SimulationFile(s.ID, a.config.Simulations.AquaductResults)
			n, err := cached(a, "waters", file, "", func() (int, error) {
				return aquaduct.ReadTracedWaters(file)
			})
			if errors.Is(err, fs.ErrNotExist) {
				util.LogWarn("AQUA-DUCT results not found", util.F("path", file))
				perSim.Rows = append(perSim.Rows, []string{s.ID, "-"})
				continue
			}
			if err != nil {
				return nil, err
			}
			counts[s.ID] = n
			values = append(values, float64(n))
			perSim.Rows = append(perSim.Rows, []string{s.ID, strconv.Itoa(n)})
			bars = append(bars, chart.Bar{Label: s.ID, Value: float64(n)})
		}

		sum := stats.Describe(values)
		total := 0
		for _, v := range values {
			total += int(v)
		}
		perFolder.Rows = append(perFolder.Rows, []string{
			fg.Folder, strconv.Itoa(sum.N), strconv.Itoa(total), util.FormatFloat(sum.Mean, 1),
		})
	}
	perSim.Data = counts

	if chartPath != "" {
		err := chart.SavePNG(chartPath, func(w io.Writer) error {
			return chart.Bars(w, "Traced water molecules", bars)
		})
		if err != nil {
			return nil, err
		}
		perSim.Notes = append(perSim.Notes, "chart: "+chartPath)
	}
	return []formatter.Table{perSim, perFolder}, nil
}

func summaryCells(s stats.Summary) []string {
	return []string{
		strconv.Itoa(s.N),
		util.FormatFloat(s.Mean, 2), util.FormatFloat(s.Std, 2), util.FormatFloat(s.Median, 2),
		util.FormatFloat(s.Min, 2), util.FormatFloat(s.Max, 2),
	}
}

// Helix summarises the helix-helix distance across a tunnel opening per
// simulation, per comparative folder and per epoch with the models pooled.
// A bar chart of the folder means is written to chartPath when set.
func (a *Analyzer) Helix(tunnel, chartPath string) ([]formatter.Table, error) {
	if tunnel == "" {
		return nil, fmt.Errorf("helix needs a tunnel name")
	}
	path := a.config.Simulations.OpeningsFile(helix.FileName(tunnel))
	d, err := cached(a, "helix", path, "", func() (*helix.Distances, error) {
		return helix.Read(path)
	})
	if err != nil {
		return nil, err
	}

	headers := []string{"N", "Mean", "Std", "Median", "Min", "Max"}
	perSim := formatter.Table{
		Title:   fmt.Sprintf("Helix distance of %s (Å)", tunnel),
		Headers: append([]string{"Simulation"}, headers...),
	}
	perFolder := formatter.Table{
		Title:   fmt.Sprintf("Helix distance of %s per folder (Å)", tunnel),
		Headers: append([]string{"Folder"}, headers...),
	}
	perEpoch := formatter.Table{
		Title:   fmt.Sprintf("Helix distance of %s per epoch (Å)", tunnel),
		Headers: append([]string{"Epoch"}, headers...),
	}

	configured := make(map[string]bool, len(a.sims))
	summaries := make(map[string]stats.Summary)
	for _, s := range a.sims {
		configured[s.ID] = true
		sum := stats.Describe(d.Values[s.ID])
		if sum.N > 0 {
			summaries[s.ID] = sum
		}
		perSim.Rows = append(perSim.Rows, append([]string{s.ID}, summaryCells(sum)...))
	}
	perSim.Data = summaries

	var bars []chart.Bar
	byEpoch := make(map[string][]float64)
	for _, fg := range a.Folders() {
		var values []float64
		for _, s := range fg.Simulations {
			values = append(values, d.Values[s.ID]...)
		}
		byEpoch[fg.Epoch] = append(byEpoch[fg.Epoch], values...)

		sum := stats.Describe(values)
		perFolder.Rows = append(perFolder.Rows, append([]string{fg.Folder}, summaryCells(sum)...))
		if sum.N > 0 {
			bars = append(bars, chart.Bar{Label: fg.Folder, Value: sum.Mean})
		}
	}
	for _, epoch := range a.epochs() {
		perEpoch.Rows = append(perEpoch.Rows, append([]string{epoch}, summaryCells(stats.Describe(byEpoch[epoch]))...))
	}

	var extra []string
	for _, sim := range d.Simulations {
		if !configured[sim] {
			extra = append(extra, sim)
		}
	}
	if len(extra) > 0 {
		perSim.Notes = append(perSim.Notes, "not configured: "+strings.Join(extra, ", "))
	}

	if chartPath != "" {
		err := chart.SavePNG(chartPath, func(w io.Writer) error {
			return chart.Bars(w, fmt.Sprintf("Mean helix distance of %s (Å)", tunnel), bars)
		})
		if err != nil {
			return nil, err
		}
		perFolder.Notes = append(perFolder.Notes, "chart: "+chartPath)
	}
	return []formatter.Table{perSim, perFolder, perEpoch}, nil
}
