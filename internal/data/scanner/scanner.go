package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/util"
)

// ReportPatterns match every tool output read by the analyses.
var ReportPatterns = []string{
	"*_statistics.txt",
	"*_bottleneck_residues.txt",
	"*super_cluster_details*.txt",
	"outlier_transport_events_details.txt",
	"super_cluster_*.csv",
}

// FileScanner finds report files below a directory
type FileScanner struct {
	baseDir  string
	patterns []string
}

// NewFileScanner creates a FileScanner matching base names against patterns.
// Without patterns it matches ReportPatterns.
func NewFileScanner(baseDir string, patterns ...string) *FileScanner {
	if len(patterns) == 0 {
		patterns = ReportPatterns
	}
	return &FileScanner{
		baseDir:  baseDir,
		patterns: patterns,
	}
}

func (s *FileScanner) match(name string) bool {
	for _, p := range s.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Scan walks the directory and returns the matching file paths in lexical order
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebugf("Start scanning directory: %s", s.baseDir)

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebugf("Skip file (error): %s - %v", path, err)
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if s.match(info.Name()) {
			files = append(files, path)
		}
		return nil
	})

	util.LogDebugf("File scan completed: duration %v, scanned %d directories, %d files, found %d reports",
		time.Since(start), dirCount, totalCount, len(files))

	return files, err
}

// ListDirs returns the names of the immediate sub-directories of root, sorted.
func ListDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Simulations lists the simulation directories below root. Directories whose
// name is not a simulation id are skipped.
func Simulations(root string) ([]model.Simulation, error) {
	dirs, err := ListDirs(root)
	if err != nil {
		return nil, err
	}

	sims := make([]model.Simulation, 0, len(dirs))
	for _, d := range dirs {
		s, err := model.ParseSimulationID(d)
		if err != nil {
			util.LogDebugf("Skip directory %s: %v", d, err)
			continue
		}
		sims = append(sims, s)
	}
	model.Sort(sims)
	return sims, nil
}
