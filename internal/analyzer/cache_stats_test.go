package analyzer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aravindramcb/water-models/internal/data/cache"
	"github.com/stretchr/testify/assert"
)

func TestMissDescription(t *testing.T) {
	tests := []struct {
		reason   cache.CacheMissReason
		expected string
	}{
		{cache.MissReasonNone, "none"},
		{cache.MissReasonError, "Cache read error"},
		{cache.MissReasonInode, "Report replaced"},
		{cache.MissReasonSize, "Report size changed"},
		{cache.MissReasonModTime, "Report modification time changed"},
		{cache.MissReasonFingerprint, "Report content changed"},
		{cache.MissReasonNoFingerprint, "Cached entry has no fingerprint"},
		{cache.MissReasonNotFound, "Not cached yet"},
		{cache.CacheMissReason(999), "Unknown reason"},
	}

	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, missDescription(tt.reason))
		})
	}
}

func TestCacheStatsCounters(t *testing.T) {
	stats := NewCacheStats()

	total, hits, misses, failures, hitRate := stats.GetStats()
	assert.Zero(t, total)
	assert.Zero(t, hits)
	assert.Zero(t, misses)
	assert.Zero(t, failures)
	assert.Zero(t, hitRate)

	for i := 0; i < 4; i++ {
		stats.IncrementTotal()
	}
	stats.IncrementHit()
	stats.IncrementHit()
	stats.IncrementHit()
	stats.IncrementMiss("/tt/opc_1/4-filtered_events_statistics.txt", cache.MissReasonSize)
	stats.IncrementFailure()

	total, hits, misses, failures, hitRate = stats.GetStats()
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(3), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), failures)
	assert.Equal(t, 75.0, hitRate)

	assert.Equal(t, []MissDetail{
		{Path: "/tt/opc_1/4-filtered_events_statistics.txt", Reason: cache.MissReasonSize},
	}, stats.Misses())
}

func TestCacheStatsMissReasons(t *testing.T) {
	stats := NewCacheStats()
	stats.IncrementMiss("a", cache.MissReasonNotFound)
	stats.IncrementMiss("b", cache.MissReasonNotFound)
	stats.IncrementMiss("c", cache.MissReasonModTime)

	assert.Equal(t, map[cache.CacheMissReason]int{
		cache.MissReasonNotFound: 2,
		cache.MissReasonModTime:  1,
	}, stats.MissReasons())

	// logging without an initialised logger is a no-op
	stats.PrintPeriodicStats()
	stats.PrintFinalStats()
}

func TestCacheStatsConcurrentAccess(t *testing.T) {
	stats := NewCacheStats()

	const workers = 10
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				stats.IncrementTotal()
				if j%2 == 0 {
					stats.IncrementHit()
				} else {
					stats.IncrementMiss(fmt.Sprintf("/tt/w%d_%d", id, j), cache.CacheMissReason(j%8))
				}
			}
		}(i)
	}
	wg.Wait()

	total, hits, misses, _, hitRate := stats.GetStats()
	assert.Equal(t, int64(workers*perWorker), total)
	assert.Equal(t, int64(workers*perWorker/2), hits)
	assert.Equal(t, int64(workers*perWorker/2), misses)
	assert.Equal(t, 50.0, hitRate)

	seen := make(map[string]bool)
	for _, m := range stats.Misses() {
		assert.False(t, seen[m.Path], "duplicate miss %s", m.Path)
		seen[m.Path] = true
	}
	assert.Len(t, seen, workers*perWorker/2)
}

func BenchmarkIncrementMiss(b *testing.B) {
	stats := NewCacheStats()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			stats.IncrementMiss("/tt/report.txt", cache.MissReasonNotFound)
		}
	})
}
