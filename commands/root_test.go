package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/testing/fixtures"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStudy lays out a small TransportTools run and returns its manifest path
func writeStudy(t *testing.T, extra string) string {
	t.Helper()
	g := fixtures.NewTestDataGenerator(t.TempDir())
	require.NoError(t, g.EventStatistics("opc_1", 1, 2, 3))
	require.NoError(t, g.EventStatistics("tip3p_1", 1, 3))
	require.NoError(t, g.TransitDetails(fixtures.TransitBlock{
		SuperCluster: 1,
		Tunnels:      []string{"1A_opc_1", "1A_tip3p_1"},
		Entries: map[string][]fixtures.FrameRange{
			"1A_opc_1":   {{Start: 100, End: 150}, {Start: 300, End: 310}},
			"1A_tip3p_1": {{Start: 5, End: 9}},
		},
	}))

	path, err := g.Manifest(
		[]string{"1A_opc_1", "1A_opc_2", "1A_tip3p_1"},
		[]fixtures.Group{{Name: "P1", SuperClusters: []int{1}}, {Name: "P2", SuperClusters: []int{2}}},
		extra,
	)
	require.NoError(t, err)
	return path
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "water-models [command]", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{
		"groups", "events", "unassigned", "residues", "transit", "stats", "consolidate",
		"occupancy", "bottleneck", "waters", "helix", "tevents", "snapshots", "hbonds", "watch",
	} {
		assert.Contains(t, names, want)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd          *cobra.Command
		flag         string
		defaultValue string
	}{
		{rootCmd, "config", ""},
		{rootCmd, "output", ""},
		{rootCmd, "debug", "false"},
		{rootCmd, "reset", "false"},
		{eventsCmd, "tunnels", "false"},
		{residuesCmd, "top", "10"},
		{residuesCmd, "folder-top", "5"},
		{transitCmd, "measure", "combined"},
		{transitCmd, "frames", "false"},
		{transitCmd, "by-definition", "false"},
		{statsCmd, "by", "folder"},
		{statsCmd, "source", "durations"},
		{consolidateCmd, "chart", ""},
		{snapshotsCmd, "hbonds", "false"},
		{snapshotsCmd, "protein-size", "0"},
		{hbondsCmd, "db", ""},
		{hbondsCmd, "out", ""},
		{watchCmd, "debounce", "2s"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name()+"/"+tt.flag, func(t *testing.T) {
			flag := tt.cmd.Flags().Lookup(tt.flag)
			if flag == nil {
				flag = tt.cmd.PersistentFlags().Lookup(tt.flag)
			}
			require.NotNil(t, flag)
			assert.Equal(t, tt.defaultValue, flag.DefValue)
		})
	}
}

func TestGroupsCommand(t *testing.T) {
	cfg := writeStudy(t, "")

	out, err := execute(t, "--config", cfg, "-o", "csv", "groups")
	require.NoError(t, err)
	assert.Equal(t, "Folder,P1,P2,others\nopc_1,1,2,3\ntip3p_1,1,,3\n", out)
}

func TestTransitCommand(t *testing.T) {
	cfg := writeStudy(t, "")

	out, err := execute(t, "--config", cfg, "-o", "csv", "transit", "--group", "P1", "--measure", "entry")
	require.NoError(t, err)
	assert.Contains(t, out, "1A_opc_1,2,30.00,28.28,30.0,10,50")
	assert.Contains(t, out, "1A_tip3p_1,1,4.00,-,4.0,4,4")
	assert.Contains(t, out, "all,3,")
}

func TestOutputFile(t *testing.T) {
	cfg := writeStudy(t, "")
	path := filepath.Join(t.TempDir(), "groups.json")

	out, err := execute(t, "--config", cfg, "-o", "json", "--output-file", path, "groups")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"opc_1"`)
}

func TestCommandErrors(t *testing.T) {
	cfg := writeStudy(t, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown measure", []string{"transit", "--measure", "sideways"}, "unknown measure"},
		{"unknown group", []string{"transit", "--group", "P9"}, "unknown group"},
		{"unknown comparison", []string{"stats", "--by", "replica"}, "unknown comparison"},
		{"unknown source", []string{"stats", "--source", "volume"}, "unknown source"},
		{"residues without group", []string{"residues"}, "required flag"},
		{"helix without tunnel", []string{"helix"}, "required flag"},
		{"missing helix table", []string{"helix", "--tunnel", "p9"}, "failed to open distance table"},
		{"hbonds without database", []string{"hbonds", "--db", "none.json"}, "failed to read event database"},
		{"unknown watch analysis", []string{"watch", "nope"}, "unknown analysis"},
		{"bad output format", []string{"-o", "xml", "groups"}, "output.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfg}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInvalidManifest(t *testing.T) {
	cfg := writeStudy(t, "analysis:\n  attribution: sometimes\n")

	_, err := execute(t, "--config", cfg, "groups")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestOutputPath(t *testing.T) {
	cfg := writeStudy(t, "")
	resetFlags(rootCmd)
	configFile = cfg
	t.Cleanup(func() { resetFlags(rootCmd) })

	a, err := setup(groupsCmd)
	require.NoError(t, err)
	outDir := a.Config().Output.Dir

	assert.Equal(t, "", outputPath(a, ""))
	assert.Equal(t, "/abs/chart.png", outputPath(a, "/abs/chart.png"))
	assert.Equal(t, filepath.Join(outDir, "chart.png"), outputPath(a, "chart.png"))
	assert.Equal(t, filepath.Join(outDir, "transport_events.json"), databasePath(a, ""))
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseOutput(t *testing.T) {
	closeErr := errors.New("disk full")
	formatErr := errors.New("format failed")

	tests := []struct {
		name   string
		closer failingCloser
		prior  error
		want   error
	}{
		{"clean close", failingCloser{}, nil, nil},
		{"close error surfaces", failingCloser{err: closeErr}, nil, closeErr},
		{"earlier error wins", failingCloser{err: closeErr}, formatErr, formatErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prior
			closeOutput(tt.closer, &err)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWriteOutputFile(t *testing.T) {
	f, err := formatter.New("csv")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out", "t.csv")

	tables := []formatter.Table{{Headers: []string{"Folder"}, Rows: [][]string{{"opc_1"}}}}
	require.NoError(t, writeOutputFile(path, f, tables))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Folder\nopc_1\n", string(data))
}
