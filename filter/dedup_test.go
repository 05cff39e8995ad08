package filter

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/arloliu/sensorpipe/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupSet(t *testing.T) {
	s := NewDedupSet(4)

	require.True(t, s.Insert("a"))
	require.False(t, s.Insert("a"))
	require.True(t, s.Insert("b"))
	require.True(t, s.Contains("a"))
	require.False(t, s.Contains("c"))
	require.Equal(t, 2, s.Len())
	require.Equal(t, 0, s.Collisions())

	s.Reset()
	require.Equal(t, 0, s.Len())
	require.False(t, s.Contains("a"))
	require.True(t, s.Insert("a"))
}

func TestDedupSet_DefaultShards(t *testing.T) {
	require.Len(t, NewDedupSet(0).shards, DefaultDedupShards)
	require.Len(t, NewDedupSet(-3).shards, DefaultDedupShards)
	require.Len(t, NewDedupSet(1).shards, 1)
}

func TestDedupSet_ConcurrentInsertAcceptsOnce(t *testing.T) {
	const (
		goroutines = 32
		keys       = 500
	)

	s := NewDedupSet(8)
	var accepted [keys]atomic.Int32

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < keys; k++ {
				if s.Insert(fmt.Sprintf("key-%d", k)) {
					accepted[k].Add(1)
				}
			}
		}()
	}
	wg.Wait()

	for k := range accepted {
		assert.Equal(t, int32(1), accepted[k].Load(), "key-%d", k)
	}
	require.Equal(t, keys, s.Len())
}

func TestEngine_ConcurrentUnique(t *testing.T) {
	e := newEngine(t, NewConfig().SetUnique(true))

	const goroutines = 16
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Fresh map per goroutine; equal content yields an equal key.
			if e.ShouldInclude(reading.Reading{"sensor": "t1", "value": "20"}) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), accepted.Load())
}
