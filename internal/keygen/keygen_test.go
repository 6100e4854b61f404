package keygen

import (
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceKey(t *testing.T) {
	s := NewSource(1)

	for i := 0; i < 1000; i++ {
		key := s.Key()
		require.Len(t, key, Length)
		assert.True(t, IsValid(key), "key %q has characters outside the alphabet", key)
	}
}

func TestSourceCoversAlphabet(t *testing.T) {
	s := NewSource(7)

	seen := make(map[byte]bool)
	for _, key := range s.Keys(2000) {
		for i := 0; i < len(key); i++ {
			seen[key[i]] = true
		}
	}

	// the last character of the alphabet must be reachable too
	assert.True(t, seen['9'], "digit 9 never drawn")
	assert.Len(t, seen, len(Alphabet))
}

func TestSourceSameSeedSameKeys(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, NewSource(43).Key(), NewSource(44).Key())
}

func TestSourceSameSeedAcrossGC(t *testing.T) {
	want := NewSource(42).Keys(5)

	s := NewSource(42)
	got := make([]string, 0, len(want))
	for range want {
		got = append(got, s.Key())
		runtime.GC()
		runtime.GC()
	}
	assert.Equal(t, want, got)
}

func TestSourceConcurrent(t *testing.T) {
	s := NewSource(99)

	const workers = 16
	const perWorker = 500

	var mu sync.Mutex
	keys := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := s.Keys(perWorker)
			mu.Lock()
			defer mu.Unlock()
			for _, k := range local {
				keys[k]++
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range keys {
		total += n
	}
	assert.Equal(t, workers*perWorker, total)
	// 36^8 possible keys, collisions in 8000 draws are practically impossible
	assert.Greater(t, len(keys), workers*perWorker-5)
}

func TestKeysNonPositive(t *testing.T) {
	s := NewSource(1)
	assert.Empty(t, s.Keys(0))
	assert.Empty(t, s.Keys(-3))
}

func TestGlobalKey(t *testing.T) {
	global.Store(nil)
	t.Cleanup(func() { global.Store(nil) })

	_, err := Key()
	require.ErrorIs(t, err, ErrNotInitialized)

	assert.True(t, Init(5))
	assert.False(t, Init(6), "second Init must be a no-op")

	key, err := Key()
	require.NoError(t, err)
	assert.Equal(t, NewSource(5).Key(), key)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"ABCD1234", true},
		{"ZZZZ9999", true},
		{"abcd1234", false},
		{"ABC", false},
		{strings.Repeat("A", 9), false},
		{"ABCD-123", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValid(tt.key), tt.key)
	}
}
