package transit

import (
	"strings"
	"testing"

	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `Supercluster ID 1

Tunnel clusters:
from 1A_opc_1: 1
from 1A_opc_2: 4

entry: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_1: 1, (WAT:10), 100->150; 2, (WAT:11), 300->310;
release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_2: 3, (WAT:12), 20->22;
-----
Supercluster ID 2

Tunnel clusters:
from 1A_opc_1: 2
from 1.4A_opc_1: 2

entry: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_1: 4, (WAT:13), 140->160;
release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1.4A_opc_1: 5, (WAT:14), 5->9;
-----
Supercluster ID 3

Tunnel clusters:
from 1A_opc_1: 7

release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_1: 6, (WAT:15), 1->1;
-----
`

var (
	defs = grouping.Definitions{
		{Name: "P1", SuperClusters: []int{1}},
		{Name: "P2", SuperClusters: []int{2}},
	}
	sims = []string{"1A_opc_1", "1A_opc_2", "1.4A_opc_1"}
)

func loadTransit(t *testing.T) *details.Transit {
	t.Helper()
	tr, err := details.ParseTransit(strings.NewReader(report), "details2.txt")
	require.NoError(t, err)
	return tr
}

func attribution() map[string]grouping.Assignment {
	return grouping.AttributeFolders(defs, map[string][]int{
		"opc_1":   {1, 2, 3},
		"opc_1.4": {3},
	}, grouping.ModeAll)
}

func TestCollectByAttribution(t *testing.T) {
	groups, err := Collect(loadTransit(t), defs.Names(), Options{
		Select:      ByAttribution(attribution()),
		Simulations: sims,
	})
	require.NoError(t, err)
	require.Len(t, groups, 3)

	p1 := groups[0]
	assert.Equal(t, "P1", p1.Name)
	assert.Equal(t, []int{1}, p1.SuperClusters)
	a, ok := p1.Simulation("1A_opc_1")
	require.True(t, ok)
	assert.Equal(t, []int{50, 10}, a.Entry)
	assert.Empty(t, a.Release)
	b, _ := p1.Simulation("1A_opc_2")
	assert.Equal(t, []int{2}, b.Release)
	c, _ := p1.Simulation("1.4A_opc_1")
	assert.Zero(t, c.Count(MeasureCombined), "simulations without events are still reported")
	assert.Nil(t, a.Frames)

	p2 := groups[1]
	assert.Equal(t, []int{2}, p2.SuperClusters)
	a, _ = p2.Simulation("1A_opc_1")
	assert.Equal(t, []int{20}, a.Entry)
	c, _ = p2.Simulation("1.4A_opc_1")
	assert.Empty(t, c.Release, "super cluster 2 is not attributed in opc_1.4")

	others := groups[2]
	assert.Equal(t, grouping.Others, others.Name)
	a, _ = others.Simulation("1A_opc_1")
	assert.Equal(t, []int{0}, a.Release)
}

func TestCollectByDefinition(t *testing.T) {
	groups, err := Collect(loadTransit(t), []string{"P2"}, Options{
		Select:      ByDefinition(defs),
		Simulations: sims,
	})
	require.NoError(t, err)
	c, _ := groups[0].Simulation("1.4A_opc_1")
	assert.Equal(t, []int{4}, c.Release)
}

func TestCollectDefaultsToReportSimulations(t *testing.T) {
	groups, err := Collect(loadTransit(t), []string{"P1"}, Options{Select: ByDefinition(defs)})
	require.NoError(t, err)

	var got []string
	for _, s := range groups[0].Simulations {
		got = append(got, s.Simulation)
	}
	assert.Equal(t, []string{"1A_opc_1", "1A_opc_2", "1.4A_opc_1"}, got)
}

func TestCollectRequiresSelector(t *testing.T) {
	_, err := Collect(loadTransit(t), []string{"P1"}, Options{})
	assert.Error(t, err)
}

func TestExpandFramesAndOccupancy(t *testing.T) {
	groups, err := Collect(loadTransit(t), []string{"P1", "P2"}, Options{
		Select:       ByAttribution(attribution()),
		Simulations:  sims,
		ExpandFrames: true,
	})
	require.NoError(t, err)

	a, _ := groups[0].Simulation("1A_opc_1")
	assert.Len(t, a.Frames, 62)
	assert.Equal(t, 100, a.Frames[0])
	assert.Equal(t, 310, a.Frames[len(a.Frames)-1])

	occ, ok := groups[0].Occupancy("1A_opc_1", MeasureCombined, 620)
	require.True(t, ok)
	assert.InDelta(t, 0.1, occ, 1e-12)

	_, ok = groups[0].Occupancy("1A_opc_1", MeasureCombined, 0)
	assert.False(t, ok)
	_, ok = groups[0].Occupancy("unknown", MeasureCombined, 620)
	assert.False(t, ok)

	a, _ = groups[1].Simulation("1A_opc_1")
	assert.Len(t, a.Frames, 21)
	c, _ := groups[1].Simulation("1.4A_opc_1")
	assert.NotNil(t, c.Frames)
	assert.Empty(t, c.Frames)
}

func TestFramesPerMeasure(t *testing.T) {
	const split = `Supercluster ID 1

Tunnel clusters:
from 1A_opc_1: 1

entry: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_1: 1, (WAT:10), 0->9;
release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_1: 2, (WAT:11), 100->109;
-----
`
	tr, err := details.ParseTransit(strings.NewReader(split), "split.txt")
	require.NoError(t, err)

	groups, err := Collect(tr, []string{"P1"}, Options{
		Select:       ByAttribution(attribution()),
		Simulations:  []string{"1A_opc_1"},
		ExpandFrames: true,
	})
	require.NoError(t, err)
	s, ok := groups[0].Simulation("1A_opc_1")
	require.True(t, ok)

	tests := []struct {
		measure Measure
		frames  int
		first   int
		last    int
	}{
		{MeasureEntry, 10, 0, 9},
		{MeasureRelease, 10, 100, 109},
		{MeasureCombined, 20, 0, 109},
	}
	for _, tt := range tests {
		t.Run(string(tt.measure), func(t *testing.T) {
			frames := s.FramesOf(tt.measure)
			require.Len(t, frames, tt.frames)
			assert.Equal(t, tt.first, frames[0])
			assert.Equal(t, tt.last, frames[len(frames)-1])

			occ, ok := groups[0].Occupancy("1A_opc_1", tt.measure, 200)
			require.True(t, ok)
			assert.InDelta(t, float64(tt.frames)/200, occ, 1e-12)
		})
	}
}

func TestPooledAndByFolder(t *testing.T) {
	groups, err := Collect(loadTransit(t), []string{"P1"}, Options{
		Select:      ByAttribution(attribution()),
		Simulations: sims,
	})
	require.NoError(t, err)
	p1 := groups[0]

	assert.Equal(t, []float64{50, 10, 2}, p1.Pooled(MeasureCombined))
	assert.Equal(t, []float64{50, 10}, p1.Pooled(MeasureEntry))

	samples := p1.ByFolder(MeasureCombined)
	require.Len(t, samples, 2)
	assert.Equal(t, "opc_1", samples[0].Folder)
	assert.Equal(t, []float64{50, 10, 2}, samples[0].Values)
	assert.Equal(t, "opc_1.4", samples[1].Folder)
	assert.Empty(t, samples[1].Values)
}

func TestParseMeasure(t *testing.T) {
	m, err := ParseMeasure("")
	require.NoError(t, err)
	assert.Equal(t, MeasureCombined, m)

	m, err = ParseMeasure("release")
	require.NoError(t, err)
	assert.Equal(t, MeasureRelease, m)

	_, err = ParseMeasure("exit")
	assert.Error(t, err)
}
