package details

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aravindramcb/water-models/internal/data/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transitReport = `TransportTools super cluster details

Supercluster ID 1

Details on tunnel network:
Number of MD simulations = 2
Tunnel clusters:
from 1A_opc_1: 1, 4
from 1A_opc_2: 2

Details on transport events:
entry: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_1: 1952, (WAT:8178), 100->150; 1960, (WAT:8200), 300->310;
from 1A_tip3p_1: 12, (WAT:90), 5->9;
release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_opc_2: 77, (WAT:1000), 20->22;
------------------------------------------------------------------------------------------------------------------------
Supercluster ID 2

Details on tunnel network:
Tunnel clusters:
from 1A_tip3p_1: 3

Details on transport events:
release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 1A_tip3p_1: 5, (WAT:11), 40->47;
Supercluster ID 3

Tunnel clusters:
from 1A_opc_1: 9

------------------------------------------------------------------------------------------------------------------------
`

func TestEventDurationAndFrames(t *testing.T) {
	ev := Event{Start: 100, End: 150}
	assert.Equal(t, 50, ev.Duration())

	frames := ev.Frames()
	require.Len(t, frames, 51)
	assert.Equal(t, 100, frames[0])
	assert.Equal(t, 150, frames[50])
	for i := 1; i < len(frames); i++ {
		assert.Equal(t, frames[i-1]+1, frames[i])
	}

	assert.Equal(t, []int{7}, Event{Start: 7, End: 7}.Frames())
	assert.Empty(t, Event{Start: 9, End: 7}.Frames())
}

func TestParseTransit(t *testing.T) {
	tr, err := ParseTransit(strings.NewReader(transitReport), "details2.txt")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, tr.SuperClusters())

	b1, ok := tr.Block(1)
	require.True(t, ok)
	assert.Equal(t, []string{"1A_opc_1", "1A_opc_2"}, b1.Simulations)
	assert.Equal(t, []Event{{100, 150}, {300, 310}}, b1.Entries["1A_opc_1"])
	assert.NotContains(t, b1.Entries, "1A_tip3p_1", "simulation without a tunnel cluster is dropped")
	assert.Equal(t, []Event{{20, 22}}, b1.Releases["1A_opc_2"])
	assert.Equal(t, []Event{{100, 150}, {300, 310}}, b1.Combined("1A_opc_1"))
	assert.Equal(t, []Event{{20, 22}}, b1.Combined("1A_opc_2"))

	b2, ok := tr.Block(2)
	require.True(t, ok)
	assert.Empty(t, b2.Entries)
	assert.Equal(t, []Event{{40, 47}}, b2.Events(Release, "1A_tip3p_1"))

	b3, ok := tr.Block(3)
	require.True(t, ok)
	assert.Equal(t, []string{"1A_opc_1"}, b3.Simulations)
	assert.Empty(t, b3.Entries)
	assert.Empty(t, b3.Releases)

	_, ok = tr.Block(99)
	assert.False(t, ok)
}

func TestParseTransitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), TransitFile)
	require.NoError(t, os.WriteFile(path, []byte(transitReport), 0644))

	first, err := ReadTransit(path)
	require.NoError(t, err)
	second, err := ReadTransit(path)
	require.NoError(t, err)
	assert.Equal(t, first.Blocks, second.Blocks)
}

func TestScannerTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  []string
		line  string
		want  State
		noErr bool
	}{
		{"preamble ignored", nil, "TransportTools", SeekHeader, true},
		{"header opens block", nil, "Supercluster ID 4", SeekTunnels, true},
		{"preamble inside block", []string{"Supercluster ID 4"}, "Tunnel clusters:", SeekTunnels, true},
		{"first tunnel line", []string{"Supercluster ID 4"}, "from 1A_opc_1: 3", InTunnels, true},
		{"blank ends tunnels", []string{"Supercluster ID 4", "from 1A_opc_1: 3"}, "", SeekEntry, true},
		{"entry section", []string{"Supercluster ID 4", "from 1A_opc_1: 3", ""}, "entry: (from ...)", InEntry, true},
		{"release without entry", []string{"Supercluster ID 4", "from 1A_opc_1: 3", ""}, "release: (from ...)", InRelease, true},
		{"block without events", []string{"Supercluster ID 4", "from 1A_opc_1: 3", ""}, "-----", SeekHeader, true},
		{"entry to release", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "entry:"}, "release:", InRelease, true},
		{"dash ends entry", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "entry:"}, "-----", SeekHeader, true},
		{"entry event", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "entry:"}, "from 1A_opc_1: 1, (WAT:2), 3->4;", InEntry, true},
		{"dash ends release", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "release:"}, "-----", SeekHeader, true},
		{"header ends release", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "release:"}, "Supercluster ID 5", SeekTunnels, true},
		{"header before tunnels", []string{"Supercluster ID 4"}, "Supercluster ID 5", SeekTunnels, false},
		{"header before events", []string{"Supercluster ID 4", "from 1A_opc_1: 3", ""}, "Supercluster ID 5", SeekEntry, false},
		{"bad header", nil, "Supercluster ID x", SeekHeader, false},
		{"bad frame range", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "entry:"}, "from 1A_opc_1: 1, (WAT:2), 3-4;", InEntry, false},
		{"blank inside entry", []string{"Supercluster ID 4", "from 1A_opc_1: 3", "", "entry:"}, "", InEntry, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test")
			for _, l := range tt.from {
				require.NoError(t, s.Feed(l))
			}

			err := s.Feed(tt.line)
			if !tt.noErr {
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tt.want, perr.State)
				assert.Equal(t, len(tt.from)+1, perr.Line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.State())
		})
	}
}

func TestScannerFinish(t *testing.T) {
	for _, state := range []State{SeekTunnels, InTunnels, SeekEntry, InEntry, InRelease} {
		t.Run(state.String(), func(t *testing.T) {
			s := NewScanner("test")
			s.state = state
			s.current = newBlock(8)
			err := s.Finish()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unexpected end of file inside super cluster 8")
		})
	}

	s := NewScanner("test")
	require.NoError(t, s.Finish())
	assert.Equal(t, Done, s.State())
	assert.Error(t, s.Feed("Supercluster ID 1"))
}

func TestParseTransitTruncated(t *testing.T) {
	truncated := "Supercluster ID 1\nfrom 1A_opc_1: 1\n\nentry:\nfrom 1A_opc_1: 1, (WAT:2), 3->4;\n"
	_, err := ParseTransit(strings.NewReader(truncated), "t")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InEntry, perr.State)
}

func TestParseTransitDuplicateBlock(t *testing.T) {
	dup := "Supercluster ID 1\nfrom a: 1\n\n-----\nSupercluster ID 1\nfrom a: 1\n\n-----\n"
	_, err := ParseTransit(strings.NewReader(dup), "t")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "t", perr.Path)
	assert.Equal(t, 5, perr.Line)
	assert.Equal(t, SeekHeader, perr.State)
	assert.Equal(t, "super cluster 1 listed twice", perr.Msg)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "InRelease", InRelease.String())
	assert.Equal(t, "State(42)", State(42).String())
}

const outlierReport = `Outlier transport events
header 2
header 3
entry: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 3A_opc_3: 1952, (WAT:8178), 19098->19131; 1953, (WAT:8179), 19200->19231;
from 1A_opc_1: 1, (WAT:1), 1->2;
release: (from Simulation: AQUA-DUCT ID, (Resname:Residue), start_frame->end_frame; ... )
from 3A_opc_3: 12, (WAT:10), 5->9;
from 1A_tip3p_2: 12, (WAT:10), 5->9; 13, (WAT:11), 6->9; 14, (WAT:12), 7->9;
`

func TestParseOutliers(t *testing.T) {
	out, err := ParseOutliers(strings.NewReader(outlierReport), "outliers")
	require.NoError(t, err)

	assert.Equal(t, parser.Unassigned{ID: "3A_opc_3", Total: 3, Entries: 2, Releases: 1}, out["3A_opc_3"])
	assert.Equal(t, parser.Unassigned{ID: "1A_opc_1", Total: 1, Entries: 1}, out["1A_opc_1"])
	assert.Equal(t, parser.Unassigned{ID: "1A_tip3p_2", Total: 3, Releases: 3}, out["1A_tip3p_2"])
	assert.Equal(t, []string{"1A_opc_1", "1A_tip3p_2", "3A_opc_3"}, out.Simulations())

	rows := out.For([]string{"1A_opc_1", "2.4A_opc_5"})
	assert.Equal(t, parser.Unassigned{ID: "2.4A_opc_5"}, rows[1], "absent simulations report zeros")
}

func TestReadOutliersMissing(t *testing.T) {
	_, err := ReadOutliers(filepath.Join(t.TempDir(), OutlierFile))
	assert.Error(t, err)
}

var separator = strings.Repeat("-", 120)

var initialReport = `Supercluster ID 1

Details on tunnel network:
Number of MD simulations = 3
Number of tunnel clusters = 4
Tunnel clusters:
from 1A_opc_1: 3, 1
from 1A_opc_2: 2
from 1A_opc_4: x, y
` + separator + `
Supercluster ID 2

Details on tunnel network:
Number of MD simulations = 1
Number of tunnel clusters = 1
Tunnel clusters:
from 1A_opc_2: 5
from 1A_opc_9: 7
` + separator + `
Supercluster ID 7

a
b
c
d
e
from 1A_opc_1: 9
`

func TestParseInitialDetails(t *testing.T) {
	sims := []string{"1A_opc_1", "1A_opc_2", "1A_opc_3", "1A_opc_4"}

	m, err := ParseInitialDetails(strings.NewReader(initialReport), []int{1, 2}, sims)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Clusters["1A_opc_1"])
	assert.Equal(t, 2, m.Clusters["1A_opc_2"], "lowest id across super clusters")
	assert.Equal(t, 7, m.Clusters["1A_opc_9"], "simulations found only in the file are kept")
	assert.Equal(t, []string{"1A_opc_3", "1A_opc_4"}, m.Missing)
	assert.Equal(t, []string{"1A_opc_1", "1A_opc_2", "1A_opc_9"}, m.Simulations())

	m, err = ParseInitialDetails(strings.NewReader(initialReport), []int{7}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1A_opc_1": 9}, m.Clusters)
}

func TestIsSeparator(t *testing.T) {
	assert.True(t, isSeparator(separator))
	assert.True(t, isSeparator("  ----------  "))
	assert.False(t, isSeparator("---"))
	assert.False(t, isSeparator("--- x ---------"))
}
