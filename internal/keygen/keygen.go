// Package keygen produces short random keys for catalog entries, such as the
// component keys written next to generated IDs.
//
// Keys are not unique identifiers. Use snowflake IDs where uniqueness matters.
package keygen

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

const (
	// Alphabet is the set of characters a key is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Length is the number of characters in a key.
	Length = 8
)

// ErrNotInitialized is returned by Key before Init has been called.
var ErrNotInitialized = errors.New("keygen: not initialized, call Init first")

// Source draws keys from a single seeded generator, so the same seed always
// yields the same sequence of keys.
//
// A Source is safe for concurrent use.
type Source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a Source seeded with seed.
func NewSource(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Key returns a new random key of Length characters from Alphabet.
func (s *Source) Key() string {
	var b [Length]byte

	s.mu.Lock()
	for i := range b {
		b[i] = Alphabet[s.r.IntN(len(Alphabet))]
	}
	s.mu.Unlock()

	return string(b[:])
}

// Keys returns n keys.
func (s *Source) Keys(n int) []string {
	keys := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		keys = append(keys, s.Key())
	}
	return keys
}

var global atomic.Pointer[Source]

// Init sets up the process-wide Source. Only the first call has an effect;
// it reports whether this call did the initialization.
func Init(seed uint64) bool {
	return global.CompareAndSwap(nil, NewSource(seed))
}

// Key returns a key from the process-wide Source.
func Key() (string, error) {
	s := global.Load()
	if s == nil {
		return "", ErrNotInitialized
	}
	return s.Key(), nil
}

// IsValid reports whether key could have been produced by this package.
func IsValid(key string) bool {
	if len(key) != Length {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
