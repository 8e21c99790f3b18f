package composition

import (
	"math/rand/v2"

	"github.com/forPelevin/supercut/internal/types"
)

// Truncate keeps the first n matches. n <= 0 keeps everything.
func Truncate(c types.Composition, n int) types.Composition {
	if n <= 0 || n >= len(c) {
		return c
	}
	out := make(types.Composition, n)
	copy(out, c[:n])
	return out
}

// Shuffle reorders c in place. A nil rng uses the global source.
func Shuffle(c types.Composition, rng *rand.Rand) {
	swap := func(i, j int) { c[i], c[j] = c[j], c[i] }
	if rng == nil {
		rand.Shuffle(len(c), swap)
		return
	}
	rng.Shuffle(len(c), swap)
}

// FixOverlaps returns a copy of c where every match that starts before the
// end of the previous match from the same file has its start pushed forward
// by padding. Each match is pushed at most once, so running it again is a
// no-op.
func FixOverlaps(c types.Composition, padding float64) types.Composition {
	out := make(types.Composition, len(c))
	copy(out, c)
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], &out[i]
		if cur.Adjusted || cur.File != prev.File || cur.Start >= prev.End {
			continue
		}
		cur.Start += padding
		cur.Adjusted = true
	}
	return out
}
