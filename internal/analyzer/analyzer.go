// Package analyzer runs the water model analyses over one TransportTools run.
// Every analysis returns formatter tables; reports are parsed once and kept in
// the file cache between runs.
package analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aravindramcb/water-models/internal/config"
	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/data/cache"
	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/aravindramcb/water-models/internal/data/parser"
	"github.com/aravindramcb/water-models/internal/data/scanner"
	"github.com/aravindramcb/water-models/internal/util"
)

type Analyzer struct {
	config  *config.Config
	cache   cache.Cache
	parser  *parser.Parser
	stats   *CacheStats
	sims    []model.Simulation
	preload sync.Once
}

func New(cfg *config.Config) (*Analyzer, error) {
	sims, err := cfg.SimulationList()
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}

	a := &Analyzer{
		config: cfg,
		parser: parser.NewParser(cfg.Concurrency()),
		stats:  NewCacheStats(),
		sims:   sims,
	}

	if cfg.Cache.Enabled {
		fileCache, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			util.LogWarn(fmt.Sprintf("Report cache disabled: %v", err))
		} else {
			a.cache = fileCache
		}
	}
	return a, nil
}

// Config returns the manifest the analyzer was built from
func (a *Analyzer) Config() *config.Config {
	return a.config
}

// Simulations returns the configured simulations in canonical order
func (a *Analyzer) Simulations() []model.Simulation {
	return a.sims
}

// Folders groups the configured simulations by comparative folder
func (a *Analyzer) Folders() []model.FolderGroup {
	return model.GroupByFolder(a.sims)
}

// epochs lists the epochs of the configured simulations, ascending
func (a *Analyzer) epochs() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range a.sims {
		if !seen[s.Epoch] {
			seen[s.Epoch] = true
			out = append(out, s.Epoch)
		}
	}
	return out
}

func (a *Analyzer) folderNames() []string {
	folders := a.Folders()
	names := make([]string, len(folders))
	for i, fg := range folders {
		names[i] = fg.Folder
	}
	return names
}

func (a *Analyzer) CacheStats() *CacheStats {
	return a.stats
}

// Refresh forgets reports parsed during this process. Cached entries are
// revalidated against the files on the next read.
func (a *Analyzer) Refresh() {
	a.parser.Reset()
	a.stats = NewCacheStats()
}

// ClearCache removes every cached report
func (a *Analyzer) ClearCache() error {
	a.parser.Reset()
	if a.cache == nil {
		return nil
	}
	if err := a.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear report cache: %w", err)
	}
	util.LogInfo("Report cache cleared", util.F("dir", a.config.Cache.Dir))
	return nil
}

func (a *Analyzer) preloadCache() {
	a.preload.Do(func() {
		if a.cache == nil {
			return
		}
		start := time.Now()
		if err := a.cache.Preload(); err != nil {
			util.LogWarn(fmt.Sprintf("Cache preload failed: %v", err))
		}
		util.LogDebug(fmt.Sprintf("Cache preload duration: %v", time.Since(start)))
	})
}

// cached returns the parse of path from the cache or runs parse and stores
// its result. Results of missing sources are not stored.
func cached[T any](a *Analyzer, kind, path, params string, parse func() (T, error)) (T, error) {
	a.preloadCache()
	a.stats.IncrementTotal()

	reason := cache.MissReasonNone
	if a.cache != nil {
		var v T
		ok, r := cache.Load(a.cache, kind, path, params, &v)
		if ok {
			a.stats.IncrementHit()
			return v, nil
		}
		reason = r
	}

	v, err := parse()
	if err != nil {
		a.stats.IncrementFailure()
		return v, err
	}
	a.stats.IncrementMiss(path, reason)

	if _, statErr := os.Stat(path); a.cache != nil && statErr == nil {
		if err := cache.Store(a.cache, kind, path, params, v); err != nil {
			util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", path, err))
		}
	}
	return v, nil
}

// Reports reads one report of every configured comparative folder. Folders
// without the report get an empty report with Found unset.
func (a *Analyzer) Reports(format parser.Format, file string) (map[string]*parser.Report, error) {
	startTime := time.Now()
	root := a.config.TransportTools.ComparativePath()
	folders := a.folderNames()

	// Phase 1: Preload cache into memory
	preloadStart := time.Now()
	a.preloadCache()
	preloadDuration := time.Since(preloadStart)

	// Phase 2: Scan the comparative analysis for reports
	scanStart := time.Now()
	files, err := scanner.NewFileScanner(root, file).Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[filepath.Base(filepath.Dir(f))] = true
	}
	configured := make(map[string]bool, len(folders))
	for _, folder := range folders {
		configured[folder] = true
		if !present[folder] {
			util.LogWarn("Report not found", util.F("folder", folder), util.F("file", file))
		}
	}
	for folder := range present {
		if !configured[folder] {
			util.LogDebugf("Skip folder not in manifest: %s", folder)
		}
	}
	scanDuration := time.Since(scanStart)
	util.LogDebug(fmt.Sprintf("Phase 2 - Report scan duration: %v, found %d of %d reports",
		scanDuration, len(present), len(folders)))

	// Phase 3: Batch validate cache
	validateStart := time.Now()
	reports := make(map[string]*parser.Report, len(folders))
	var toParse []string
	missReasons := make(map[string]cache.CacheMissReason)

	if a.cache != nil {
		keys := make([]string, len(folders))
		for i, folder := range folders {
			keys[i] = cache.Key(format.Name, filepath.Join(root, folder, file), "")
		}
		valid := a.cache.BatchValidate(keys)
		for i, folder := range folders {
			a.stats.IncrementTotal()
			path := filepath.Join(root, folder, file)
			res := valid[keys[i]]
			if res.Valid {
				var report parser.Report
				ok, reason := cache.Load(a.cache, format.Name, path, "", &report)
				if ok {
					a.stats.IncrementHit()
					reports[folder] = &report
					continue
				}
				res.MissReason = reason
			}
			toParse = append(toParse, folder)
			missReasons[folder] = res.MissReason
		}
	} else {
		for range folders {
			a.stats.IncrementTotal()
		}
		toParse = folders
	}
	validateDuration := time.Since(validateStart)
	util.LogDebug(fmt.Sprintf("Phase 3 - Cache validation duration: %v, cache hit for %d reports, need to parse %d",
		validateDuration, len(reports), len(toParse)))

	// Phase 4: Parse missed reports concurrently
	parseStart := time.Now()
	var firstErr error
	for res := range a.parser.ParseFolders(format, root, toParse, file) {
		if res.Error != nil {
			a.stats.IncrementFailure()
			util.LogWarn(fmt.Sprintf("Failed to parse report %s: %v", res.File, res.Error))
			if firstErr == nil {
				firstErr = fmt.Errorf("folder %s: %w", res.Folder, res.Error)
			}
			continue
		}
		a.stats.IncrementMiss(res.File, missReasons[res.Folder])
		reports[res.Folder] = res.Report

		if a.cache != nil && res.Report.Found {
			if err := cache.Store(a.cache, format.Name, res.File, "", res.Report); err != nil {
				util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", res.File, err))
			}
		}
	}
	parseDuration := time.Since(parseStart)
	util.LogDebug(fmt.Sprintf("Phase 4 - Report parsing duration: %v", parseDuration))

	a.stats.PrintPeriodicStats()
	a.stats.PrintFinalStats()
	if a.cache != nil {
		mem, entries := a.cache.GetCacheStats()
		util.LogDebug("Cache entries", util.F("memory", mem), util.F("files", entries))
	}

	util.LogDebug(fmt.Sprintf("Total duration: %v (preload:%v scan:%v validate:%v parse:%v)",
		time.Since(startTime), preloadDuration, scanDuration, validateDuration, parseDuration))

	if firstErr != nil {
		return nil, firstErr
	}
	return reports, nil
}

// Attribution attributes the super clusters observed in every comparative
// folder's event statistics to the configured groups.
func (a *Analyzer) Attribution() (map[string]grouping.Assignment, error) {
	reports, err := a.Reports(parser.EventStatistics, parser.EventStatisticsFile)
	if err != nil {
		return nil, err
	}

	observed := make(map[string][]int, len(reports))
	for folder, r := range reports {
		observed[folder] = r.SuperClusters()
	}
	return grouping.AttributeFolders(a.config.GroupDefinitions(), observed, a.config.AttributionMode()), nil
}

// Transit parses the super cluster details report
func (a *Analyzer) Transit() (*details.Transit, error) {
	path := a.config.TransportTools.DetailsFile(details.TransitFile)
	start := time.Now()
	tr, err := cached(a, "transit", path, "", func() (*details.Transit, error) {
		return details.ReadTransit(path)
	})
	if err != nil {
		return nil, err
	}
	util.LogDebug(fmt.Sprintf("Transit report loaded in %v: %d super clusters", time.Since(start), len(tr.Blocks)))
	return tr, nil
}

// Outliers parses the outlier events report. A missing report means no
// unassigned events.
func (a *Analyzer) Outliers() (details.Outliers, error) {
	path := a.config.TransportTools.DetailsFile(details.OutlierFile)
	out, err := cached(a, "outliers", path, "", func() (details.Outliers, error) {
		return details.ReadOutliers(path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		util.LogWarn("Outlier report not found", util.F("path", path))
		return details.Outliers{}, nil
	}
	return out, err
}

// groupNames returns the configured group names followed by others
func (a *Analyzer) groupNames() []string {
	return a.config.GroupDefinitions().Names()
}

// group looks up a configured group. Others is accepted and has no definition.
func (a *Analyzer) group(name string) (grouping.Definition, error) {
	if name == grouping.Others {
		return grouping.Definition{Name: grouping.Others}, nil
	}
	def, ok := a.config.GroupDefinitions().Lookup(name)
	if !ok {
		return grouping.Definition{}, fmt.Errorf("unknown group %q, known groups: %s",
			name, strings.Join(a.groupNames(), ", "))
	}
	return def, nil
}
