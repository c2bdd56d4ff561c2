// Package rank selects and formats the top-k predictions from a model
// output vector.
package rank

import (
	"math"
	"sort"

	"github.com/adityaks/cattle-api/internal/labels"
)

// Prediction is one ranked class with its confidence as a percentage in
// [0, 100], rounded to two decimals.
type Prediction struct {
	Breed      string  `json:"breed"`
	Confidence float64 `json:"confidence"`
}

// TopK returns the k highest-scoring classes from probs, descending by
// score. Exact ties resolve by ascending original index, so ranking is
// deterministic. If k exceeds the class count, all classes are returned.
// probs[i] must correspond to set[i]; positions beyond len(set) are ignored.
func TopK(probs []float32, set labels.Set, k int) []Prediction {
	n := len(probs)
	if len(set) < n {
		n = len(set)
	}
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if probs[idx[a]] != probs[idx[b]] {
			return probs[idx[a]] > probs[idx[b]]
		}
		return idx[a] < idx[b]
	})

	out := make([]Prediction, k)
	for i := 0; i < k; i++ {
		out[i] = Prediction{
			Breed:      set[idx[i]],
			Confidence: roundPercent(probs[idx[i]]),
		}
	}
	return out
}

// roundPercent scales a probability to a percentage rounded to 2 decimals.
func roundPercent(v float32) float64 {
	return math.Round(float64(v)*100*100) / 100
}
