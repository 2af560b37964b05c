package recommendation

import (
	"math/rand/v2"
	"sync"
)

// Shuffle permutes n elements through swap, uniformly at random.
// Orders built with it are non-deterministic unless seeded.
type Shuffle func(n int, swap func(i, j int))

// RandomShuffle uses the process-wide generator
func RandomShuffle() Shuffle {
	return rand.Shuffle
}

// SeededShuffle returns a reproducible shuffle, safe for concurrent use
func SeededShuffle(seed uint64) Shuffle {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	return func(n int, swap func(i, j int)) {
		mu.Lock()
		defer mu.Unlock()
		r.Shuffle(n, swap)
	}
}
