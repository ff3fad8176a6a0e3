package index

import (
	"math"
	"sort"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// ranked is one result list entry; rank starts at 1.
type ranked struct {
	pos  int
	rank int
}

// fuseRRF merges ranked lists of chunk positions and returns the best k
// positions with their fused scores. Ties keep document order.
func fuseRRF(k int, lists ...[]ranked) ([]int, []float64) {
	scores := map[int]float64{}
	for _, list := range lists {
		for _, r := range list {
			scores[r.pos] += 1.0 / float64(rrfK+r.rank)
		}
	}
	positions := make([]int, 0, len(scores))
	for pos := range scores {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		si, sj := scores[positions[i]], scores[positions[j]]
		if si != sj {
			return si > sj
		}
		return positions[i] < positions[j]
	})
	if k < len(positions) {
		positions = positions[:k]
	}
	fused := make([]float64, len(positions))
	for i, pos := range positions {
		fused[i] = scores[pos]
	}
	return positions, fused
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
