package residues

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(rows ...string) string {
	return strings.Repeat("#\n", headerLines) + strings.Join(rows, "\n") + "\n"
}

func TestParse(t *testing.T) {
	input := table(
		"1, 4500, 102:0.85, 165:0.40, 243:0.10",
		"2, -, ",
		"3, 120, 243:0.25, 102:0.2",
		"",
	)

	records, err := Parse(strings.NewReader(input), "t", 0.2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].SuperCluster)
	assert.Equal(t, 4500, records[0].Frames)
	assert.Equal(t, []Frequency{{"102", 0.85}, {"165", 0.40}}, records[0].Residues)
	assert.Equal(t, []Frequency{{"243", 0.25}, {"102", 0.2}}, records[1].Residues, "cutoff is inclusive")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"bad id", "x, 10, 1:0.5"},
		{"bad frames", "1, ten, 1:0.5"},
		{"no colon", "1, 10, 105"},
		{"bad frequency", "1, 10, 105:high"},
		{"single field", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(table(tt.row)), "t", 0.2)
			assert.Error(t, err)
		})
	}
}

func TestRankOverlappingSuperClusters(t *testing.T) {
	records := []Record{
		{SuperCluster: 1, Residues: []Frequency{{"102", 0.9}, {"165", 0.4}}},
		{SuperCluster: 2, Residues: []Frequency{{"300", 0.95}}},
		{SuperCluster: 5, Residues: []Frequency{{"165", 0.6}, {"210", 0.3}, {"201", 0.3}}},
	}

	selected := Select(records, []int{1, 5})
	require.Len(t, selected, 2)

	ranked := Rank(selected)
	require.Len(t, ranked, 4)
	var names []string
	for _, f := range ranked {
		names = append(names, f.Residue)
	}
	assert.Equal(t, []string{"102", "165", "201", "210"}, names)
	assert.InDelta(t, 0.9, ranked[0].Frequency, 1e-12)
	assert.InDelta(t, 0.5, ranked[1].Frequency, 1e-12, "mean over the super clusters listing it")

	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 0), 4)
	assert.Len(t, Top(ranked, 10), 4)
	assert.Empty(t, Rank(Select(records, []int{9})))
}

func TestComparative(t *testing.T) {
	root := t.TempDir()
	for folder, row := range map[string]string{
		"opc_1":   "1, 10, 102:0.9, 165:0.1\n2, 10, 99:0.5",
		"tip3p_1": "1, 10, 240:0.3",
	} {
		dir := filepath.Join(root, folder)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, File), []byte(table(row)), 0644))
	}

	got, err := Comparative(root, []string{"opc_1", "tip3p_1", "tip4pew_1"}, []int{1}, 0.2)
	require.NoError(t, err)
	assert.Equal(t, map[string][]Record{
		"opc_1":   {{SuperCluster: 1, Frames: 10, Residues: []Frequency{{"102", 0.9}}}},
		"tip3p_1": {{SuperCluster: 1, Frames: 10, Residues: []Frequency{{"240", 0.3}}}},
	}, got)
}
