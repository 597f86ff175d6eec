package agent

import (
	"errors"
	"fmt"
	"math"
)

var ErrGenomeLength = errors.New("genome length does not match feature set")

// Genome is the weight vector of a linear board evaluator. Weight i pairs with
// feature i of the feature set the genome was trained against.
type Genome []float64

func (g Genome) Len() int {
	return len(g)
}

func (g Genome) Clone() Genome {
	if g == nil {
		return nil
	}
	return append(Genome(nil), g...)
}

// Dot scores a feature vector. features must have the same length as g.
func (g Genome) Dot(features []float64) float64 {
	var sum float64
	for i, w := range g {
		sum += w * features[i]
	}
	return sum
}

// Equal compares weights bit for bit, so NaN equals NaN and 0 differs from -0.
func (g Genome) Equal(other Genome) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if math.Float64bits(g[i]) != math.Float64bits(other[i]) {
			return false
		}
	}
	return true
}

func checkLength(g Genome, want int) error {
	if len(g) != want {
		return fmt.Errorf("%w: got %d weights, want %d", ErrGenomeLength, len(g), want)
	}
	return nil
}
