package analyzer

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aravindramcb/water-models/internal/data/cache"
	"github.com/aravindramcb/water-models/internal/util"
)

// missDescription explains a cache miss reason in log lines
func missDescription(r cache.CacheMissReason) string {
	switch r {
	case cache.MissReasonNone:
		return "none"
	case cache.MissReasonError:
		return "Cache read error"
	case cache.MissReasonInode:
		return "Report replaced"
	case cache.MissReasonSize:
		return "Report size changed"
	case cache.MissReasonModTime:
		return "Report modification time changed"
	case cache.MissReasonFingerprint:
		return "Report content changed"
	case cache.MissReasonNoFingerprint:
		return "Cached entry has no fingerprint"
	case cache.MissReasonNotFound:
		return "Not cached yet"
	default:
		return "Unknown reason"
	}
}

// CacheStats counts how the reports of one analysis were obtained
type CacheStats struct {
	total    int64
	hits     int64
	misses   int64
	failures int64
	mu       sync.Mutex
	missed   []MissDetail
}

// MissDetail records a report that had to be parsed
type MissDetail struct {
	Path   string
	Reason cache.CacheMissReason
}

func NewCacheStats() *CacheStats {
	return &CacheStats{}
}

func (cs *CacheStats) IncrementTotal() {
	atomic.AddInt64(&cs.total, 1)
}

func (cs *CacheStats) IncrementHit() {
	atomic.AddInt64(&cs.hits, 1)
}

// IncrementMiss counts a parsed report and remembers why it was not cached
func (cs *CacheStats) IncrementMiss(path string, reason cache.CacheMissReason) {
	atomic.AddInt64(&cs.misses, 1)

	cs.mu.Lock()
	cs.missed = append(cs.missed, MissDetail{Path: path, Reason: reason})
	cs.mu.Unlock()
}

func (cs *CacheStats) IncrementFailure() {
	atomic.AddInt64(&cs.failures, 1)
}

// GetStats returns the counters and the hit rate in percent
func (cs *CacheStats) GetStats() (total, hits, misses, failures int64, hitRate float64) {
	total = atomic.LoadInt64(&cs.total)
	hits = atomic.LoadInt64(&cs.hits)
	misses = atomic.LoadInt64(&cs.misses)
	failures = atomic.LoadInt64(&cs.failures)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// Misses returns a copy of the recorded misses
func (cs *CacheStats) Misses() []MissDetail {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]MissDetail, len(cs.missed))
	copy(out, cs.missed)
	return out
}

// MissReasons counts misses per reason
func (cs *CacheStats) MissReasons() map[cache.CacheMissReason]int {
	counts := make(map[cache.CacheMissReason]int)
	for _, m := range cs.Misses() {
		counts[m.Reason]++
	}
	return counts
}

// PrintPeriodicStats logs the counters and every missed report
func (cs *CacheStats) PrintPeriodicStats() {
	total, hits, misses, failures, hitRate := cs.GetStats()

	util.LogDebug(fmt.Sprintf("Cache stats: total reports %d, hits %d, misses %d, failures %d, hit rate %.1f%%",
		total, hits, misses, failures, hitRate))

	if misses > 0 {
		util.LogDebug("Reports missed in cache:")
		for _, m := range cs.Misses() {
			util.LogDebug(fmt.Sprintf("  %s (%s)", m.Path, missDescription(m.Reason)))
		}
	}
}

// PrintFinalStats logs the hit rate and a summary of the miss reasons
func (cs *CacheStats) PrintFinalStats() {
	total, hits, misses, failures, hitRate := cs.GetStats()

	util.LogInfo(fmt.Sprintf("Report cache: total reports %d, hit rate %.1f%% (%d hits/%d misses/%d failures)",
		total, hitRate, hits, misses, failures))

	if misses == 0 {
		return
	}
	counts := cs.MissReasons()
	reasons := make([]cache.CacheMissReason, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	util.LogInfo("Cache miss reason summary:")
	for _, r := range reasons {
		util.LogInfo(fmt.Sprintf("  %s: %d reports", missDescription(r), counts[r]))
	}
}
