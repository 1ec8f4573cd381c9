// Package consolidate sums the assigned transport events of every tunnel group
// per simulation and puts them next to the events TransportTools could not
// assign.
package consolidate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/aravindramcb/water-models/internal/data/parser"
	"github.com/aravindramcb/water-models/internal/util"
)

const (
	ResultsFile        = "consolidated_results.csv"
	UnassignedFile     = "unassigned_events_sep.csv"
	UnassignedByFolder = "consolidated_unassigned.csv"
)

// Count is the number of events of one group in one simulation.
type Count struct {
	Folder     string `json:"folder"`
	Group      string `json:"group"`
	Simulation string `json:"simulation"`
	Entry      int    `json:"entry"`
	Release    int    `json:"release"`
}

func (c Count) Total() int { return c.Entry + c.Release }

// Column names the consolidated column of this count, "<group>_<folder>".
func (c Count) Column() string { return c.Group + "_" + c.Folder }

// Result is the consolidated view of one TransportTools run.
type Result struct {
	Groups  []string            `json:"groups"`
	Folders []model.FolderGroup `json:"folders"`
	// Counts are ordered by folder, group, then simulation.
	Counts     []Count             `json:"counts"`
	Unassigned []parser.Unassigned `json:"unassigned"`
}

// Build counts the events of each simulation over the super clusters its
// comparative folder attributed to each group. A folder without an assignment
// counts zero everywhere.
func Build(tr *details.Transit, assignments map[string]grouping.Assignment, groups []string,
	sims []model.Simulation, outliers details.Outliers) *Result {

	res := &Result{
		Groups:     groups,
		Folders:    model.GroupByFolder(sims),
		Unassigned: outliers.For(model.IDs(sims)),
	}

	for _, fg := range res.Folders {
		a, ok := assignments[fg.Folder]
		if !ok {
			util.LogWarnf("No super cluster attribution for folder %s", fg.Folder)
		}
		for _, g := range groups {
			for _, s := range fg.Simulations {
				c := Count{Folder: fg.Folder, Group: g, Simulation: s.ID}
				for _, sc := range a.Get(g) {
					b, found := tr.Block(sc)
					if !found {
						continue
					}
					c.Entry += len(b.Entries[s.ID])
					c.Release += len(b.Releases[s.ID])
				}
				res.Counts = append(res.Counts, c)
			}
		}
	}
	return res
}

// Total sums entry and release events of a group over one folder.
func (r *Result) Total(folder, group string) int {
	n := 0
	for _, c := range r.Counts {
		if c.Folder == folder && c.Group == group {
			n += c.Total()
		}
	}
	return n
}

// UnassignedTotal sums the unassigned events of one folder's simulations.
func (r *Result) UnassignedTotal(folder string) int {
	n := 0
	for _, fg := range r.Folders {
		if fg.Folder != folder {
			continue
		}
		for _, u := range r.unassignedFor(fg) {
			n += u.Entries + u.Releases
		}
	}
	return n
}

func (r *Result) unassignedFor(fg model.FolderGroup) []parser.Unassigned {
	byID := make(map[string]parser.Unassigned, len(r.Unassigned))
	for _, u := range r.Unassigned {
		byID[u.ID] = u
	}
	out := make([]parser.Unassigned, 0, len(fg.Simulations))
	for _, s := range fg.Simulations {
		out = append(out, byID[s.ID])
	}
	return out
}

// Table is a header and rows of already formatted cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// ResultsTable lays the counts out with one column per group and folder and
// one row per replica position inside the folder.
func (r *Result) ResultsTable() Table {
	var t Table
	var columns [][]int
	for _, fg := range r.Folders {
		for _, g := range r.Groups {
			var col []int
			for _, c := range r.Counts {
				if c.Folder == fg.Folder && c.Group == g {
					col = append(col, c.Total())
				}
			}
			t.Header = append(t.Header, g+"_"+fg.Folder)
			columns = append(columns, col)
		}
	}
	t.Rows = pivot(columns)
	return t
}

// UnassignedTable has the rows Entry and Release and one column per simulation.
func (r *Result) UnassignedTable() Table {
	t := Table{Header: []string{""}}
	entry := []string{"Entry"}
	release := []string{"Release"}
	for _, u := range r.Unassigned {
		t.Header = append(t.Header, u.ID)
		entry = append(entry, strconv.Itoa(u.Entries))
		release = append(release, strconv.Itoa(u.Releases))
	}
	t.Rows = [][]string{entry, release}
	return t
}

// FolderUnassignedTable has one column per folder holding the unassigned
// events of each of its simulations.
func (r *Result) FolderUnassignedTable() Table {
	var t Table
	var columns [][]int
	for _, fg := range r.Folders {
		var col []int
		for _, u := range r.unassignedFor(fg) {
			col = append(col, u.Entries+u.Releases)
		}
		t.Header = append(t.Header, fg.Folder)
		columns = append(columns, col)
	}
	t.Rows = pivot(columns)
	return t
}

// pivot turns columns into rows. Short columns leave empty cells.
func pivot(columns [][]int) [][]string {
	height := 0
	for _, c := range columns {
		if len(c) > height {
			height = len(c)
		}
	}
	rows := make([][]string, height)
	for i := range rows {
		rows[i] = make([]string, len(columns))
		for j, c := range columns {
			if i < len(c) {
				rows[i][j] = strconv.Itoa(c[i])
			}
		}
	}
	return rows
}

// WriteCSV writes the three consolidation tables into dir.
func (r *Result) WriteCSV(dir string) ([]string, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, err
	}

	files := []struct {
		name  string
		table Table
	}{
		{ResultsFile, r.ResultsTable()},
		{UnassignedFile, r.UnassignedTable()},
		{UnassignedByFolder, r.FolderUnassignedTable()},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeTable(path, f.table); err != nil {
			return written, err
		}
		util.LogInfo("Wrote consolidation table", util.F("path", path), util.F("rows", len(f.table.Rows)))
		written = append(written, path)
	}
	return written, nil
}

func writeTable(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
