package utils

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Mean returns 0 for an empty slice.
func Mean[T Number](xs []T) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}

// ArgMax returns the index of the first largest element, or -1 for an empty slice.
func ArgMax[T constraints.Ordered](xs []T) int {
	best := -1
	for i, x := range xs {
		if best < 0 || x > xs[best] {
			best = i
		}
	}
	return best
}

func Clamp[T constraints.Ordered](x, lo, hi T) T {
	return max(lo, min(x, hi))
}
