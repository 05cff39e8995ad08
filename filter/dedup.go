package filter

import (
	"sync"

	"github.com/arloliu/sensorpipe/internal/collision"
	"github.com/arloliu/sensorpipe/internal/hash"
)

// DefaultDedupShards is the number of shards used when none is configured.
const DefaultDedupShards = 64

type dedupShard struct {
	mu      sync.Mutex
	tracker *collision.Tracker
	_       [48]byte // keep neighbouring shard locks off the same cache line
}

// DedupSet is a concurrent set of canonical reading keys.
//
// A key is routed to a shard by its xxHash64; test-and-insert is atomic under
// that shard's mutex, so of several goroutines inserting the same key exactly
// one observes it as new. Hash collisions between distinct keys are resolved
// by full-key comparison and never cause a reading to be dropped.
type DedupSet struct {
	shards []dedupShard
}

// NewDedupSet creates a set with n shards. Values below 1 select DefaultDedupShards.
func NewDedupSet(n int) *DedupSet {
	if n < 1 {
		n = DefaultDedupShards
	}

	s := &DedupSet{shards: make([]dedupShard, n)}
	for i := range s.shards {
		s.shards[i].tracker = collision.NewTracker()
	}

	return s
}

// Insert adds key and reports whether it was absent.
func (s *DedupSet) Insert(key string) bool {
	h := hash.Key(key)
	shard := &s.shards[hash.Shard(h, len(s.shards))]

	shard.mu.Lock()
	added := shard.tracker.Insert(key, h)
	shard.mu.Unlock()

	return added
}

// Contains reports whether key has been inserted.
func (s *DedupSet) Contains(key string) bool {
	h := hash.Key(key)
	shard := &s.shards[hash.Shard(h, len(s.shards))]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	return shard.tracker.Contains(key, h)
}

// Len returns the number of distinct keys in the set.
func (s *DedupSet) Len() int {
	n := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		n += shard.tracker.Count()
		shard.mu.Unlock()
	}

	return n
}

// Collisions returns the number of distinct keys that shared a hash with an
// earlier key.
func (s *DedupSet) Collisions() int {
	n := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		n += shard.tracker.Collisions()
		shard.mu.Unlock()
	}

	return n
}

// Reset empties the set, starting a new deduplication epoch.
func (s *DedupSet) Reset() {
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		shard.tracker.Reset()
		shard.mu.Unlock()
	}
}
