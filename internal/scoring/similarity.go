package scoring

import (
	"math"

	"github.com/hyperjump/ragbench/pkg/utils"
)

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Mismatched lengths, empty vectors and zero vectors give 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := utils.Dot(a, a)
	nb := utils.Dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := utils.Dot(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}
