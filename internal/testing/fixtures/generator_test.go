package fixtures

import (
	"path/filepath"
	"testing"

	"github.com/aravindramcb/water-models/internal/config"
	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/aravindramcb/water-models/internal/data/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedReportsParse(t *testing.T) {
	g := NewTestDataGenerator(t.TempDir())

	require.NoError(t, g.EventStatistics("opc_1", 4, 1))
	report, err := parser.EventStatistics.ReadFile(filepath.Join(g.ResultsDir(), ComparativeDir, "opc_1", parser.EventStatisticsFile))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, report.SuperClusters())
	require.NotNil(t, report.Trailer)
	assert.Equal(t, 7, report.Trailer.Total)

	require.NoError(t, g.TransitDetails(
		TransitBlock{
			SuperCluster: 1,
			Tunnels:      []string{"1A_opc_1"},
			Entries:      map[string][]FrameRange{"1A_opc_1": {{Start: 1, End: 4}}},
			Releases:     map[string][]FrameRange{"1A_opc_1": {{Start: 8, End: 9}}},
		},
		TransitBlock{SuperCluster: 2, Tunnels: []string{"1A_tip3p_1"}},
	))
	tr, err := details.ReadTransit(filepath.Join(g.ResultsDir(), DetailsDir, details.TransitFile))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, tr.SuperClusters())
	b, ok := tr.Block(1)
	require.True(t, ok)
	assert.Equal(t, []details.Event{{Start: 1, End: 4}, {Start: 8, End: 9}}, b.Combined("1A_opc_1"))

	require.NoError(t, g.Outliers(map[string]int{"1A_opc_1": 2}, map[string]int{"1A_opc_1": 1, "1A_tip3p_1": 3}))
	outliers, err := details.ReadOutliers(filepath.Join(g.ResultsDir(), DetailsDir, details.OutlierFile))
	require.NoError(t, err)
	assert.Equal(t, 3, outliers["1A_opc_1"].Total)
	assert.Equal(t, 3, outliers["1A_tip3p_1"].Releases)
}

func TestManifestLoads(t *testing.T) {
	g := NewTestDataGenerator(t.TempDir())
	path, err := g.Manifest([]string{"1A_opc_1", "2.4A_tip3p_2"}, []Group{{Name: "P1", SuperClusters: []int{1, 5}}}, "")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, g.ResultsDir(), cfg.TransportTools.ResultsDir)
	assert.Equal(t, []string{"1A_opc_1", "2.4A_tip3p_2"}, cfg.Simulations.IDs)
	assert.Equal(t, []int{1, 5}, cfg.Groups[0].SuperClusters)
}
