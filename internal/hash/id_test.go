package hash

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
		{"another string", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, Key(tt.data))
		})
	}
}

func TestShard(t *testing.T) {
	for _, n := range []int{1, 7, 64} {
		for i := 0; i < 100; i++ {
			s := Shard(Key(randString(12)), n)
			require.GreaterOrEqual(t, s, 0)
			require.Less(t, s, n)
		}
	}

	require.Equal(t, Shard(Key("sensor=a"), 16), Shard(Key("sensor=a"), 16))
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range b {
		b[i] = letters[seededRand.Intn(len(letters))]
	}

	return string(b)
}

func BenchmarkKey(b *testing.B) {
	randStr := randString(64)
	b.ResetTimer()
	for b.Loop() {
		Key(randStr)
	}
}
