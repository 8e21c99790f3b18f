// Package batch splits a composition into fixed-size groups that can be
// rendered one at a time.
package batch

import (
	"fmt"

	"github.com/forPelevin/supercut/internal/types"
)

// DefaultSize bounds how many clips are decoded together.
const DefaultSize = 20

// Plan cuts c into contiguous batches of size clips; the last may be
// shorter. Matches are shared with c, not copied, and are never re-checked
// for overlap across batch boundaries.
func Plan(c types.Composition, size int) ([]types.Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", size)
	}
	out := make([]types.Batch, 0, (len(c)+size-1)/size)
	for off := 0; off < len(c); off += size {
		end := min(off+size, len(c))
		out = append(out, types.Batch{
			Index:  len(out),
			Offset: off,
			Clips:  c[off:end:end],
		})
	}
	return out, nil
}
