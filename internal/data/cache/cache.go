// Package cache memoises parsed reports on disk. Entries are addressed by the
// kind of parse, the absolute source path and the parse parameters, and are
// invalidated when the source file changes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/aravindramcb/water-models/internal/util"
	"github.com/bytedance/sonic"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
)

var missReasonNames = map[CacheMissReason]string{
	MissReasonNone:          "none",
	MissReasonError:         "error",
	MissReasonInode:         "inode",
	MissReasonSize:          "size",
	MissReasonModTime:       "modtime",
	MissReasonFingerprint:   "fingerprint",
	MissReasonNoFingerprint: "no-fingerprint",
	MissReasonNotFound:      "not-found",
}

func (r CacheMissReason) String() string {
	if s, ok := missReasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// fingerprints are skipped for files untouched this long
const fingerprintWindow = 48 * time.Hour

// Entry is one cached parse result together with the identity of its source.
type Entry struct {
	Key                string          `json:"key"`
	Kind               string          `json:"kind"`
	SourcePath         string          `json:"source_path"`
	Params             string          `json:"params"`
	Inode              uint64          `json:"inode"`
	FileSize           int64           `json:"file_size"`
	LastModified       int64           `json:"last_modified"`
	ContentFingerprint string          `json:"content_fingerprint"`
	CreatedAt          time.Time       `json:"created_at"`
	Payload            json.RawMessage `json:"payload"`
}

type CacheResult struct {
	Entry      *Entry
	Found      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(key string) CacheResult
	Set(entry *Entry) error
	Clear() error
	Preload() error
	BatchValidate(keys []string) map[string]BatchValidateResult
	GetCacheStats() (memoryCount, fileCount int)
}

// Key derives the content address of a parse.
func Key(kind, sourcePath, params string) string {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	sum := sha256.Sum256([]byte(kind + "\x00" + abs + "\x00" + params))
	return kind + "-" + hex.EncodeToString(sum[:12])
}

type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

func (c *FileCache) entryPath(key string) string {
	return filepath.Join(c.baseDir, key+".json")
}

func (c *FileCache) Get(key string) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.memoryCache[key]; exists {
		if ret := c.validateEntry(entry); ret.cached {
			return CacheResult{Entry: entry, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, key)
	}

	res := c.getFromFile(key)
	if res.Found {
		c.memoryCache[key] = res.Entry
	}
	return res
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *FileCache) getFromFile(key string) CacheResult {
	entry, err := readEntry(c.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return CacheResult{MissReason: MissReasonNotFound}
		}
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := c.validateEntry(entry); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}
	return CacheResult{Entry: entry, Found: true, MissReason: MissReasonNone}
}

type ValidateResult struct {
	cached bool
	reason CacheMissReason
}

func (c *FileCache) validateEntry(entry *Entry) ValidateResult {
	currentInfo, err := util.GetFileInfo(entry.SourcePath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: unable to get file info: %v", entry.SourcePath, err)
		return ValidateResult{cached: false, reason: MissReasonError}
	}

	if currentInfo.Inode != entry.Inode {
		util.LogDebugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			entry.SourcePath, entry.Inode, currentInfo.Inode)
		return ValidateResult{cached: false, reason: MissReasonInode}
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			entry.SourcePath, entry.FileSize, currentInfo.Size)
		return ValidateResult{cached: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebugf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			entry.SourcePath, entry.LastModified, currentInfo.ModTime)
		return ValidateResult{cached: false, reason: MissReasonModTime}
	}

	if time.Since(time.Unix(currentInfo.ModTime, 0)) > fingerprintWindow {
		return ValidateResult{cached: true, reason: MissReasonNone}
	}

	if entry.ContentFingerprint == "" {
		util.LogDebugf("Cache invalidated for %s: no fingerprint in cached entry", entry.SourcePath)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(entry.SourcePath)
	if err != nil {
		util.LogDebugf("Cache invalidated for %s: unable to calculate fingerprint: %v", entry.SourcePath, err)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}
	if fingerprint != entry.ContentFingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			entry.SourcePath, entry.ContentFingerprint, fingerprint)
		return ValidateResult{cached: false, reason: MissReasonFingerprint}
	}
	return ValidateResult{cached: true, reason: MissReasonNone}
}

// Set stamps entry with the current identity of its source file and stores it.
func (c *FileCache) Set(entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileInfo, err := util.GetFileInfo(entry.SourcePath)
	if err != nil {
		return err
	}
	entry.LastModified = fileInfo.ModTime
	entry.FileSize = fileInfo.Size
	entry.Inode = fileInfo.Inode

	if fingerprint, err := util.CalculateFileFingerprint(entry.SourcePath); err == nil {
		entry.ContentFingerprint = fingerprint
	}
	if entry.Key == "" {
		entry.Key = Key(entry.Kind, entry.SourcePath, entry.Params)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := sonic.ConfigStd.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.entryPath(entry.Key), data, 0644); err != nil {
		return err
	}

	c.memoryCache[entry.Key] = entry
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Entry)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".json" {
			os.Remove(path)
		}
		return nil
	})
}

func (c *FileCache) listEntryFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Preload reads every stored entry into memory with a worker pool, dropping
// entries whose source changed.
func (c *FileCache) Preload() error {
	util.LogDebug("Start preloading cache entries into memory")

	cacheFiles, err := c.listEntryFiles()
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}
	if len(cacheFiles) == 0 {
		util.LogDebug("Cache directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(cacheFiles) {
		numWorkers = len(cacheFiles)
	}

	filesChan := make(chan string, len(cacheFiles))
	resultsChan := make(chan preloadResult, len(cacheFiles))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go c.preloadWorker(filesChan, resultsChan, &wg)
	}
	for _, file := range cacheFiles {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, invalid, errs := 0, 0, 0

	c.mu.Lock()
	for result := range resultsChan {
		switch {
		case result.err != nil:
			errs++
			util.LogWarnf("Failed to preload cache file %s: %v", result.filePath, result.err)
		case c.validateEntry(result.entry).cached:
			c.memoryCache[result.key] = result.entry
			loaded++
		default:
			invalid++
		}
	}
	c.mu.Unlock()

	util.LogDebug("Cache preload complete",
		util.F("loaded", loaded), util.F("invalid", invalid), util.F("errors", errs), util.F("total", len(cacheFiles)))
	return nil
}

type preloadResult struct {
	filePath string
	key      string
	entry    *Entry
	err      error
}

func (c *FileCache) preloadWorker(filesChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for filePath := range filesChan {
		result := preloadResult{filePath: filePath}

		entry, err := readEntry(filePath)
		if err != nil {
			result.err = err
			resultsChan <- result
			continue
		}
		result.key = strings.TrimSuffix(filepath.Base(filePath), ".json")
		if entry.Key != "" && entry.Key != result.key {
			result.err = fmt.Errorf("entry key %s does not match file name", entry.Key)
			resultsChan <- result
			continue
		}
		result.entry = entry
		resultsChan <- result
	}
}

// GetCacheStats counts the entries held in memory and on disk.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	files, _ := c.listEntryFiles()
	return len(c.memoryCache), len(files)
}

type BatchValidateResult struct {
	Valid      bool
	MissReason CacheMissReason
}

func (c *FileCache) BatchValidate(keys []string) map[string]BatchValidateResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]BatchValidateResult, len(keys))
	validCount := 0
	for _, key := range keys {
		var r BatchValidateResult
		if entry, exists := c.memoryCache[key]; exists {
			v := c.validateEntry(entry)
			r = BatchValidateResult{Valid: v.cached, MissReason: v.reason}
		} else {
			res := c.getFromFile(key)
			r = BatchValidateResult{Valid: res.Found, MissReason: res.MissReason}
		}
		if r.Valid {
			validCount++
		}
		result[key] = r
	}

	util.LogDebugf("Batch validation complete: %d entries, %d valid", len(keys), validCount)
	return result
}

// Load decodes the cached payload of a parse into v. It reports whether a
// valid entry was found.
func Load(c Cache, kind, sourcePath, params string, v interface{}) (bool, CacheMissReason) {
	res := c.Get(Key(kind, sourcePath, params))
	if !res.Found {
		return false, res.MissReason
	}
	if err := sonic.Unmarshal(res.Entry.Payload, v); err != nil {
		util.LogDebugf("Cache payload of %s is unreadable: %v", sourcePath, err)
		return false, MissReasonError
	}
	return true, MissReasonNone
}

// Store encodes v as the payload of a parse of sourcePath.
func Store(c Cache, kind, sourcePath, params string, v interface{}) error {
	payload, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	return c.Set(&Entry{
		Key:        Key(kind, sourcePath, params),
		Kind:       kind,
		SourcePath: sourcePath,
		Params:     params,
		Payload:    payload,
	})
}
