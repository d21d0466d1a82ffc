package media

import (
	"math"
	"sort"
)

// FrameTimestamps picks n whole-second sample points across duration. It always
// includes 0, and the last sample sits at 90% of the duration to avoid
// black end frames. The result is sorted and free of duplicates.
func FrameTimestamps(duration float64, n int) []float64 {
	if n <= 1 || duration <= 0 {
		return []float64{0}
	}
	seen := map[float64]bool{0: true}
	out := []float64{0}
	for i := 1; i < n; i++ {
		var ts float64
		if i == n-1 {
			ts = math.Floor(duration * 0.9)
		} else {
			ts = math.Floor(duration * float64(i) / float64(n))
		}
		if seen[ts] {
			continue
		}
		seen[ts] = true
		out = append(out, ts)
	}
	sort.Float64s(out)
	return out
}
