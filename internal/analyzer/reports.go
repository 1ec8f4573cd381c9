package analyzer

import (
	"fmt"
	"strconv"

	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/data/parser"
	"github.com/aravindramcb/water-models/internal/data/residues"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/util"
)

type folderAssignment struct {
	Folder     string              `json:"folder"`
	Assignment grouping.Assignment `json:"assignment"`
}

// Groups lists the super clusters attributed to every group, per comparative folder
func (a *Analyzer) Groups() ([]formatter.Table, error) {
	assignments, err := a.Attribution()
	if err != nil {
		return nil, err
	}

	names := a.groupNames()
	t := formatter.Table{
		Title:   fmt.Sprintf("Super cluster attribution (mode %s)", a.config.AttributionMode()),
		Headers: append([]string{"Folder"}, names...),
	}
	for range t.Headers {
		t.Align = append(t.Align, formatter.AlignLeft)
	}

	var data []folderAssignment
	for _, folder := range a.folderNames() {
		as, ok := assignments[folder]
		if !ok {
			continue
		}
		row := []string{folder}
		for _, name := range names {
			row = append(row, util.FormatInts(as.Get(name)))
		}
		t.Rows = append(t.Rows, row)
		data = append(data, folderAssignment{Folder: folder, Assignment: as})
	}
	t.Data = data

	if overlaps := a.config.GroupDefinitions().Overlaps(); len(overlaps) > 0 {
		t.Notes = append(t.Notes, fmt.Sprintf("super clusters defined in more than one group: %s",
			util.FormatInts(overlaps)))
	}
	return []formatter.Table{t}, nil
}

// Events prints the event statistics of every comparative folder. With
// tunnels set it prints the tunnel statistics before event assignment.
func (a *Analyzer) Events(tunnels bool) ([]formatter.Table, error) {
	format, file := parser.EventStatistics, parser.EventStatisticsFile
	if tunnels {
		format, file = parser.TunnelStatistics, parser.TunnelStatisticsFile
	}

	reports, err := a.Reports(format, file)
	if err != nil {
		return nil, err
	}

	var tables []formatter.Table
	for _, folder := range a.folderNames() {
		r, ok := reports[folder]
		if !ok {
			continue
		}
		t := formatter.Table{
			Title:   folder,
			Headers: format.Columns,
		}
		if !r.Found {
			t.Notes = append(t.Notes, "report not found")
		}
		for _, row := range r.Rows {
			cells := make([]string, 0, len(row.Values))
			for _, v := range row.Values {
				cells = append(cells, v.String())
			}
			t.Rows = append(t.Rows, cells)
		}
		if tunnels {
			t.Data = r.TunnelStats()
		} else {
			t.Data = r.EventStats()
		}
		if r.Trailer != nil {
			t.Notes = append(t.Notes, fmt.Sprintf("unassigned events: %d (entry %d, release %d)",
				r.Trailer.Total, r.Trailer.Entries, r.Trailer.Releases))
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Unassigned counts the outlier events per simulation and per comparative folder
func (a *Analyzer) Unassigned() ([]formatter.Table, error) {
	outliers, err := a.Outliers()
	if err != nil {
		return nil, err
	}

	perSim := formatter.Table{
		Title:   "Unassigned events per simulation",
		Headers: []string{"Simulation", "Entries", "Releases", "Total"},
	}
	perFolder := formatter.Table{
		Title:   "Unassigned events per folder",
		Headers: []string{"Folder", "Entries", "Releases", "Total"},
	}

	var folderRows []parser.Unassigned
	for _, fg := range a.Folders() {
		sum := parser.Unassigned{ID: fg.Folder}
		for _, u := range outliers.For(model.IDs(fg.Simulations)) {
			perSim.Rows = append(perSim.Rows, unassignedRow(u))
			sum.Entries += u.Entries
			sum.Releases += u.Releases
			sum.Total += u.Total
		}
		perFolder.Rows = append(perFolder.Rows, unassignedRow(sum))
		folderRows = append(folderRows, sum)
	}
	perSim.Data = outliers.For(model.IDs(a.sims))
	perFolder.Data = folderRows

	return []formatter.Table{perSim, perFolder}, nil
}

func unassignedRow(u parser.Unassigned) []string {
	return []string{u.ID, strconv.Itoa(u.Entries), strconv.Itoa(u.Releases), strconv.Itoa(u.Total)}
}

type rankedResidues struct {
	Overall []residues.Frequency            `json:"overall"`
	Folders map[string][]residues.Frequency `json:"folders"`
}

// Residues ranks the bottleneck residues lining a group's super clusters by
// their mean frequency, over every comparative folder and per folder. top and
// folderTop limit the rankings; 0 keeps every residue.
func (a *Analyzer) Residues(group string, top, folderTop int) ([]formatter.Table, error) {
	if group == grouping.Others {
		return nil, fmt.Errorf("residues need a configured group")
	}
	def, err := a.group(group)
	if err != nil {
		return nil, err
	}

	cutoff := a.config.Analysis.FrequencyCutoff
	byFolder, err := residues.Comparative(a.config.TransportTools.ComparativePath(), a.folderNames(),
		def.SuperClusters, cutoff)
	if err != nil {
		return nil, err
	}

	data := rankedResidues{Folders: make(map[string][]residues.Frequency, len(byFolder))}
	perFolder := formatter.Table{
		Title:   fmt.Sprintf("Bottleneck residues of %s per folder", group),
		Headers: []string{"Folder", "Rank", "Residue", "Frequency"},
		Align:   []formatter.Align{formatter.AlignLeft, formatter.AlignRight, formatter.AlignLeft, formatter.AlignRight},
	}
	var pooled []residues.Record
	for _, folder := range a.folderNames() {
		records, ok := byFolder[folder]
		if !ok {
			continue
		}
		pooled = append(pooled, records...)
		ranked := residues.Top(residues.Rank(records), folderTop)
		data.Folders[folder] = ranked
		for i, f := range ranked {
			perFolder.Rows = append(perFolder.Rows, []string{
				folder, strconv.Itoa(i + 1), f.Residue, util.FormatFloat(f.Frequency, 3),
			})
		}
	}
	perFolder.Data = data.Folders

	data.Overall = residues.Top(residues.Rank(pooled), top)
	overall := formatter.Table{
		Title:   fmt.Sprintf("Bottleneck residues of %s (frequency >= %s)", group, util.FormatFloat(cutoff, 2)),
		Headers: []string{"Rank", "Residue", "Frequency"},
		Align:   []formatter.Align{formatter.AlignRight, formatter.AlignLeft, formatter.AlignRight},
		Data:    data,
	}
	for i, f := range data.Overall {
		overall.Rows = append(overall.Rows, []string{strconv.Itoa(i + 1), f.Residue, util.FormatFloat(f.Frequency, 3)})
	}
	overall.Notes = append(overall.Notes, fmt.Sprintf("super clusters: %s; mean frequency over the super clusters listing a residue",
		util.FormatInts(def.SuperClusters)))
	return []formatter.Table{overall, perFolder}, nil
}
