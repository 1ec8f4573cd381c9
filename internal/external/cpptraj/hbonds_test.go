package cpptraj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aravindramcb/water-models/internal/data/tevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHBondCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"single row", "#Frame event_H[UU] event_H[UV] event_H[Bridge]\n       1          0          3          1\n", 3},
		{"last row wins", "#Frame UU UV\n1 0 2\n\n2 1 4\n", 4},
		{"header only", "#Frame event_H[UU] event_H[UV]\n", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHBondCount(strings.NewReader(tt.input), "hb.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHBondCountErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short row", "#Frame UU UV\n1 0\n", "hb.txt:2: expected at least 3 columns, got 2"},
		{"not a number", "#Frame UU UV\n1 0 x\n", `hb.txt:2: invalid hbond count "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHBondCount(strings.NewReader(tt.input), "hb.txt")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestReadHBondCount(t *testing.T) {
	dir := t.TempDir()
	ev := tevents.Event{ID: 7, Frame: 41}
	out, _ := HBondPaths(dir, "1A_opc_1", ev)
	assert.Equal(t, filepath.Join(dir, "1A_opc_1", "f00042_e0007.txt"), out)

	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0755))
	require.NoError(t, os.WriteFile(out, []byte("#Frame event_H[UU] event_H[UV]\n1 2 5\n"), 0644))

	n, err := ReadHBondCount(out)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = ReadHBondCount(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
