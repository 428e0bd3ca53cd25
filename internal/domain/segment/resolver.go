package segment

import (
	"math/rand/v2"
	"sync"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
)

// DefaultEpsilon keeps "previous" from landing on the cue that is playing
// right now and "next" from re-selecting one that just started.
const DefaultEpsilon = 1.0

// Resolver answers navigation queries: previous, next and shuffled segment.
type Resolver struct {
	epsilon float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver creates a resolver. A nil rng uses an automatically seeded one.
func NewResolver(epsilon float64, rng *rand.Rand) *Resolver {
	if epsilon < 0 {
		epsilon = DefaultEpsilon
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Resolver{epsilon: epsilon, rng: rng}
}

// Epsilon returns the navigation tolerance in seconds.
func (r *Resolver) Epsilon() float64 {
	return r.epsilon
}

// Previous returns the nearest cue strictly earlier than t - epsilon.
func (r *Resolver) Previous(cues []cue.CuePoint, t float64) (int, bool) {
	for i := len(cues) - 1; i >= 0; i-- {
		if cues[i].Time < t-r.epsilon {
			return i, true
		}
	}
	return -1, false
}

// Next returns the nearest cue strictly later than t + epsilon.
func (r *Resolver) Next(cues []cue.CuePoint, t float64) (int, bool) {
	for i, c := range cues {
		if c.Time > t+r.epsilon {
			return i, true
		}
	}
	return -1, false
}

// Shuffle picks a random segment other than the one playing at t.
func (r *Resolver) Shuffle(cues []cue.CuePoint, t float64) (int, bool) {
	if len(cues) == 0 {
		return -1, false
	}
	return r.ShuffleIndex(len(cues), ActiveIndex(cues, t)), true
}

// ShuffleIndex picks uniformly among n indices, excluding current and, when
// n > 2, its circular neighbours. When that leaves nothing only current is
// excluded. It returns 0 for n == 1 and -1 for n == 0.
func (r *Resolver) ShuffleIndex(n, current int) int {
	if n <= 0 {
		return -1
	}
	if n == 1 {
		return 0
	}

	excluded := map[int]bool{current: true}
	if n > 2 && current >= 0 {
		excluded[(current-1+n)%n] = true
		excluded[(current+1)%n] = true
	}

	candidates := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !excluded[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		for i := 0; i < n; i++ {
			if i != current {
				candidates = append(candidates, i)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return candidates[r.rng.IntN(len(candidates))]
}
