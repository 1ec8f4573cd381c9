package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestNewFileScanner(t *testing.T) {
	s := NewFileScanner("/tmp/test")
	assert.Equal(t, "/tmp/test", s.baseDir)
	assert.Equal(t, ReportPatterns, s.patterns)

	s = NewFileScanner("/tmp/test", "*.csv")
	assert.Equal(t, []string{"*.csv"}, s.patterns)
}

func TestFileScannerScan(t *testing.T) {
	root := t.TempDir()
	want := []string{
		filepath.Join(root, "data", "super_clusters", "CSV_profiles", "filtered01", "super_cluster_01.csv"),
		filepath.Join(root, "data", "super_clusters", "details", "filtered_super_cluster_details2.txt"),
		filepath.Join(root, "data", "super_clusters", "details", "outlier_transport_events_details.txt"),
		filepath.Join(root, "statistics", "comparative_analysis", "opc_1", "2-filtered_tunnels_statistics.txt"),
		filepath.Join(root, "statistics", "comparative_analysis", "opc_1", "2-filtered_tunnels_statistics_bottleneck_residues.txt"),
		filepath.Join(root, "statistics", "comparative_analysis", "opc_1", "4-filtered_events_statistics.txt"),
	}
	for _, p := range want {
		touch(t, p)
	}
	touch(t, filepath.Join(root, "statistics", "comparative_analysis", "opc_1", "notes.md"))
	touch(t, filepath.Join(root, "logs", "run.log"))

	files, err := NewFileScanner(root).Scan()
	require.NoError(t, err)
	assert.Equal(t, want, files)
}

func TestFileScannerScanEmptyDirectory(t *testing.T) {
	files, err := NewFileScanner(t.TempDir()).Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileScannerScanNonExistentDirectory(t *testing.T) {
	files, err := NewFileScanner("/path/that/does/not/exist").Scan()
	assert.NoError(t, err, "walk errors are skipped")
	assert.Empty(t, files)
}

func TestListDirs(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"tip3p_1", "opc_1.4", "opc_1"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
	touch(t, filepath.Join(root, "README"))

	dirs, err := ListDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"opc_1", "opc_1.4", "tip3p_1"}, dirs)

	_, err = ListDirs(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestSimulations(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"3A_opc_1", "1.4A_tip3p_2", "1A_opc_2", "1A_opc_1", "analysis"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}

	sims, err := Simulations(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A_opc_1", "1A_opc_2", "1.4A_tip3p_2", "3A_opc_1"}, model.IDs(sims))
}
