package parser

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/aravindramcb/water-models/internal/util"
)

// Parser reads reports of many comparative folders concurrently. Parsed
// reports are memoised per format and path for the lifetime of the Parser.
type Parser struct {
	concurrency int
	mu          sync.Mutex
	cache       map[string]*Report
}

// ParseResult is the outcome of parsing one comparative folder's report.
type ParseResult struct {
	Folder string
	File   string
	Report *Report
	Error  error
}

// NewParser creates a Parser running at most concurrency reads at once.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{
		concurrency: concurrency,
		cache:       make(map[string]*Report),
	}
}

// ParseFile parses the report at path with format f.
func (p *Parser) ParseFile(f Format, path string) (*Report, error) {
	key := f.Name + "\x00" + path

	p.mu.Lock()
	if cached, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	util.LogDebugf("Start parsing %s report: %s", f.Name, path)

	report, err := f.ReadFile(path)
	if err != nil {
		util.LogDebugf("Failed to parse report: %s - %v", path, err)
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = report
	p.mu.Unlock()

	return report, nil
}

// ParseFolders parses file inside each folder under root concurrently. Results
// arrive in completion order; the channel is closed when all are done.
func (p *Parser) ParseFolders(f Format, root string, folders []string, file string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(folders))
	var wg sync.WaitGroup

	util.LogDebugf("Start concurrent parsing of %d folders, concurrency: %d", len(folders), p.concurrency)

	semaphore := make(chan struct{}, p.concurrency)

	for _, folder := range folders {
		wg.Add(1)
		go func(folder string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			path := filepath.Join(root, folder, file)
			fileStart := time.Now()
			report, err := p.ParseFile(f, path)
			if err != nil {
				util.LogDebugf("Report parsing failed: %s, duration %v - %v", path, time.Since(fileStart), err)
			}

			results <- ParseResult{
				Folder: folder,
				File:   path,
				Report: report,
				Error:  err,
			}
		}(folder)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebugf("Concurrent parsing finished, total duration: %v", time.Since(start))
	}()

	return results
}

// CollectFolders drains ParseFolders into a map keyed by folder. The first
// error is returned after every folder has been read.
func (p *Parser) CollectFolders(f Format, root string, folders []string, file string) (map[string]*Report, error) {
	reports := make(map[string]*Report, len(folders))
	var firstErr error
	for res := range p.ParseFolders(f, root, folders, file) {
		if res.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("folder %s: %w", res.Folder, res.Error)
			}
			continue
		}
		reports[res.Folder] = res.Report
	}
	return reports, firstErr
}

// Reset drops memoised reports.
func (p *Parser) Reset() {
	p.mu.Lock()
	p.cache = make(map[string]*Report)
	p.mu.Unlock()
}
