package hash

import "github.com/cespare/xxhash/v2"

// Key computes the xxHash64 of a canonical reading key.
func Key(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Shard maps a hash onto one of n shards. n must be positive.
func Shard(h uint64, n int) int {
	return int(h % uint64(n))
}
